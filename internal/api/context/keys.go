package context

type Key string

const (
	AccessToken Key = "access_token"
	Params      Key = "params"
	RequestID   Key = "request_id"
)
