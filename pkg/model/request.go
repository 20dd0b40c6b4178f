package model

// Request is the request-like input accepted by the log formatters.
// A nil Body means the request carried no body at all.
type Request struct {
	Method string
	Path   string
	Body   any
}
