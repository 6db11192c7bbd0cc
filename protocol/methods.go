package protocol

// LSP method constants.
const (
	// Lifecycle
	MethodInitialize  = "initialize"
	MethodInitialized = "initialized"
	MethodShutdown    = "shutdown"
	MethodExit        = "exit"

	// Text document sync
	MethodDidOpen   = "textDocument/didOpen"
	MethodDidChange = "textDocument/didChange"

	// Language features
	MethodHover = "textDocument/hover"
)
