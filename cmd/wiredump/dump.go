package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/wippyai/rtmp-wire/amf"
	"github.com/wippyai/rtmp-wire/chunk"
	"github.com/wippyai/rtmp-wire/envelope"
)

// entry is one decoded unit: a reassembled chunk-stream message, a bare
// value, or an envelope section.
type entry struct {
	title  string
	detail string
}

// collector gathers every message the chunk decoder completes.
type collector struct {
	msgs []message
}

type message struct {
	channelID uint32
	header    chunk.Header
	payload   []byte
}

func (c *collector) Deliver(channelID uint32, h chunk.Header, payload []byte) error {
	c.msgs = append(c.msgs, message{channelID, h, payload})
	return nil
}

// loadEntries decodes a capture per mode: "chunks" reassembles a chunk
// stream and decodes each message body, "amf0"/"amf3" decode a flat
// value sequence, "envelope" decodes one remoting envelope.
func loadEntries(data []byte, mode string, chunkSize uint32) ([]entry, error) {
	switch mode {
	case "chunks":
		return loadChunkStream(data, chunkSize)
	case "amf0":
		return loadValues(data, false)
	case "amf3":
		return loadValues(data, true)
	case "envelope":
		return loadEnvelope(data)
	default:
		return nil, fmt.Errorf("unknown mode %q (want chunks, amf0, amf3 or envelope)", mode)
	}
}

func loadChunkStream(data []byte, chunkSize uint32) ([]entry, error) {
	mgr := &collector{}
	d := chunk.NewDecoder(mgr, chunk.Config{InboundChunkSize: chunkSize})
	if err := d.OnData(data); err != nil {
		return nil, fmt.Errorf("chunk stream: %w", err)
	}

	var entries []entry
	for _, m := range mgr.msgs {
		e := entry{
			title: fmt.Sprintf("ch %d  type 0x%02x  ts %d  %d bytes",
				m.channelID, m.header.TypeID, m.header.Timestamp, len(m.payload)),
		}
		var b strings.Builder
		fmt.Fprintf(&b, "channel    %d\n", m.channelID)
		fmt.Fprintf(&b, "type id    0x%02x\n", m.header.TypeID)
		fmt.Fprintf(&b, "timestamp  %d\n", m.header.Timestamp)
		fmt.Fprintf(&b, "stream id  %d\n", m.header.StreamID)
		fmt.Fprintf(&b, "length     %d\n\n", len(m.payload))
		b.WriteString(describePayload(m.payload))
		e.detail = b.String()
		entries = append(entries, e)
	}
	if d.Buffered() > 0 {
		entries = append(entries, entry{
			title:  fmt.Sprintf("(%d trailing bytes, incomplete chunk)", d.Buffered()),
			detail: "The capture ends mid-chunk; remaining bytes were not consumed.",
		})
	}
	return entries, nil
}

// describePayload decodes a message body as a value sequence, falling
// back to a hex preview when it does not parse.
func describePayload(payload []byte) string {
	if len(payload) == 0 {
		return "(empty payload)"
	}
	vals, err := decodeAll(payload, false)
	if err != nil || len(vals) == 0 {
		return "payload (hex):\n" + hexPreview(payload)
	}
	var b strings.Builder
	for i, v := range vals {
		fmt.Fprintf(&b, "value %d:\n%s\n", i, formatValue(v, 1))
	}
	return b.String()
}

func loadValues(data []byte, v3 bool) ([]entry, error) {
	vals, err := decodeAll(data, v3)
	if err != nil && len(vals) == 0 {
		return nil, err
	}
	var entries []entry
	for i, v := range vals {
		entries = append(entries, entry{
			title:  fmt.Sprintf("value %d  %s", i, valueKind(v)),
			detail: formatValue(v, 0),
		})
	}
	if err != nil {
		entries = append(entries, entry{title: "(decode stopped)", detail: err.Error()})
	}
	return entries, nil
}

// decodeAll reads values until the input is exhausted. One decoder
// instance spans the sequence so back-references within it resolve.
func decodeAll(data []byte, v3 bool) ([]amf.Value, error) {
	r := bytes.NewReader(data)
	var vals []amf.Value
	for r.Len() > 0 {
		var (
			v   amf.Value
			err error
		)
		if v3 {
			v, err = amf.NewDecoder3(r).Decode()
		} else {
			v, err = amf.NewDecoder0(r).Decode()
		}
		if err != nil {
			return vals, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func loadEnvelope(data []byte) ([]entry, error) {
	env, err := envelope.Decode(data)
	if err != nil {
		return nil, err
	}
	entries := []entry{{
		title: fmt.Sprintf("envelope  version %d  client %d", env.Version, env.ClientType),
		detail: fmt.Sprintf("version      %d\nclient type  %d\nheaders      %d\nbodies       %d",
			env.Version, env.ClientType, len(env.Headers), len(env.Bodies)),
	}}
	for _, h := range env.Headers {
		entries = append(entries, entry{
			title:  fmt.Sprintf("header  %s  required=%v", h.Name, h.Required),
			detail: formatValue(h.Value, 0),
		})
	}
	for _, b := range env.Bodies {
		entries = append(entries, entry{
			title:  fmt.Sprintf("body  %s -> %s", b.Target, b.Response),
			detail: formatValue(b.Value, 0),
		})
	}
	return entries, nil
}

// formatValue renders a value tree with two-space indentation.
func formatValue(v amf.Value, depth int) string {
	pad := strings.Repeat("  ", depth)
	switch v := v.(type) {
	case amf.Null:
		return pad + "null"
	case amf.Undefined:
		return pad + "undefined"
	case amf.Boolean:
		return fmt.Sprintf("%s%v", pad, bool(v))
	case amf.Number:
		return fmt.Sprintf("%s%g", pad, float64(v))
	case amf.Integer:
		return fmt.Sprintf("%s%d", pad, int32(v))
	case amf.String:
		return fmt.Sprintf("%s%q", pad, string(v))
	case amf.XMLDocument:
		return fmt.Sprintf("%sxml %q", pad, string(v))
	case amf.ByteArray:
		return fmt.Sprintf("%sbytes[%d] %x", pad, len(v), preview([]byte(v), 16))
	case *amf.Date:
		return fmt.Sprintf("%sdate %.0fms (tz %+d min)", pad, v.Millis, v.TZOffsetMinutes)
	case *amf.Array:
		var b strings.Builder
		fmt.Fprintf(&b, "%sarray dense=%d assoc=%d", pad, len(v.Dense), len(v.Assoc)+len(v.Extra))
		for i, el := range v.Dense {
			fmt.Fprintf(&b, "\n%s  [%d]\n%s", pad, i, formatValue(el, depth+2))
		}
		for _, m := range v.Assoc {
			fmt.Fprintf(&b, "\n%s  %q:\n%s", pad, m.Key, formatValue(m.Value, depth+2))
		}
		for _, m := range v.Extra {
			fmt.Fprintf(&b, "\n%s  [%d]:\n%s", pad, m.Index, formatValue(m.Value, depth+2))
		}
		return b.String()
	case *amf.Object:
		var b strings.Builder
		name := "anonymous"
		if v.Trait != nil && v.Trait.Name != "" {
			name = v.Trait.Name
		}
		fmt.Fprintf(&b, "%sobject %s", pad, name)
		for _, m := range v.Members {
			fmt.Fprintf(&b, "\n%s  %q:\n%s", pad, m.Key, formatValue(m.Value, depth+2))
		}
		return b.String()
	case *amf.Externalized:
		return fmt.Sprintf("%sexternalized %s:\n%s", pad, v.Trait.Name, formatValue(v.Inner, depth+1))
	default:
		return fmt.Sprintf("%s%#v", pad, v)
	}
}

func valueKind(v amf.Value) string {
	switch v := v.(type) {
	case amf.Null:
		return "null"
	case amf.Undefined:
		return "undefined"
	case amf.Boolean:
		return "boolean"
	case amf.Number:
		return "number"
	case amf.Integer:
		return "integer"
	case amf.String:
		return "string"
	case amf.XMLDocument:
		return "xml"
	case amf.ByteArray:
		return "byte array"
	case *amf.Date:
		return "date"
	case *amf.Array:
		return "array"
	case *amf.Object:
		if v.Trait != nil && v.Trait.Name != "" {
			return "object " + v.Trait.Name
		}
		return "object"
	case *amf.Externalized:
		return "externalized"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func preview(p []byte, n int) []byte {
	if len(p) > n {
		return p[:n]
	}
	return p
}

func hexPreview(p []byte) string {
	const perLine = 16
	var b strings.Builder
	for off := 0; off < len(p) && off < 256; off += perLine {
		end := off + perLine
		if end > len(p) {
			end = len(p)
		}
		fmt.Fprintf(&b, "  %04x  % x\n", off, p[off:end])
	}
	if len(p) > 256 {
		fmt.Fprintf(&b, "  ... %d more bytes\n", len(p)-256)
	}
	return b.String()
}
