package api

// UpdateNoteRequest is the body for PUT /api/notes/*.
type UpdateNoteRequest struct {
	Content string `json:"content"`
}

// MintMarkerRequest is the body for POST /api/markers/mint. Count is
// the cell count for checks, the maximum for rating, the total for
// progress; Value/Upper/Unit apply to number markers only. Glyph
// fields ride into the payload unchanged and may be empty.
type MintMarkerRequest struct {
	Path        string `json:"path"`
	Type        string `json:"type"`
	Count       int    `json:"count,omitempty"`
	Value       string `json:"value,omitempty"`
	Upper       string `json:"upper,omitempty"`
	Unit        string `json:"unit,omitempty"`
	GlyphOn     string `json:"glyph_on,omitempty"`
	GlyphOff    string `json:"glyph_off,omitempty"`
	Warn        *bool  `json:"warn,omitempty"`
}

// MintMarkerResponse carries the freshly minted marker text.
type MintMarkerResponse struct {
	Marker string `json:"marker"`
}

// PatchMarkerRequest is the body for POST /api/markers/patch. Payload
// is the full comma-joined field list including the warn flag.
type PatchMarkerRequest struct {
	Path    string `json:"path"`
	Type    string `json:"type"`
	ID      string `json:"id"`
	Payload string `json:"payload"`
}

// RenderBlockRequest is the body for POST /api/blocks/render.
type RenderBlockRequest struct {
	Source string `json:"source"`
}

// RenderBlockResponse carries the composed widget fragment.
type RenderBlockResponse struct {
	HTML string `json:"html"`
}

// UpdateBlockRequest is the body for POST /api/blocks/update. Block is
// the zero-based tracker block index within the note.
type UpdateBlockRequest struct {
	Path  string `json:"path"`
	Block int    `json:"block"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// InsertBlockRequest is the body for POST /api/blocks/insert.
type InsertBlockRequest struct {
	Path   string `json:"path"`
	Source string `json:"source"`
}
