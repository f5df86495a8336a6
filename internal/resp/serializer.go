package resp

import (
	"bytes"
)

// Marshal encodes a single Value into its wire representation
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	if err := enc.Write(v); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// SerializeCommand uses a standard Encoder to convert the command to an array of bulk strings
func SerializeCommand(args ...string) ([]byte, error) {
	return Marshal(MakeBulkArray(args))
}
