package connection

// Conn is one addressable client connection. Implementations must allow
// WriteJSON to be called from several goroutines.
type Conn interface {
	Id() string
	WriteJSON(v any) error
}
