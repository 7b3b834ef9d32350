package response

type Response struct {
	Data any    `json:"data,omitempty"`
	Msg  string `json:"msg,omitempty"`
}
