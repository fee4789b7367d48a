package middlewares

const (
	CtxPrincipal = "auth.principal"
	CtxRequestID = "request_id"
)
