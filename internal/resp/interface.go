package resp

// Reader reads RESP values from a stream
type Reader interface {
	Read() (Value, error)
}

// Writer buffers RESP values until Flush
type Writer interface {
	Write(v Value) error
	Flush() error
}
