package protocol

// RequiredFields lists the params members, as dotted paths, that must be
// present and not null. Their values are not inspected: an empty URI is a
// URI like any other.
func (*DidOpenTextDocumentParams) RequiredFields() []string {
	return []string{"textDocument.uri", "textDocument.text"}
}

func (*DidChangeTextDocumentParams) RequiredFields() []string {
	return []string{"textDocument.uri", "contentChanges"}
}

func (*HoverParams) RequiredFields() []string {
	return []string{"textDocument.uri", "position"}
}
