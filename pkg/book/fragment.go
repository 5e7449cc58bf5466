package book

// LibraryRef identifies the runtime library a fragment targets.
type LibraryRef struct {
	MachineName  string `json:"machineName"`
	MajorVersion int    `json:"majorVersion"`
	MinorVersion int    `json:"minorVersion"`
}

// Fragment is a single unit of content within a chapter: a tagged
// variant carrying the fully materialized sub-structure the target
// runtime library expects, a unique sub-content id, and optionally
// embedded child fragments.
type Fragment struct {
	// Type is the content-type tag that produced this fragment
	// (e.g. "text", "dragtext", "ai-crossword").
	Type string `json:"type"`

	// Library is the runtime library this fragment targets.
	Library LibraryRef `json:"library"`

	// SubContentID is opaque and unique within the build.
	SubContentID string `json:"subContentId"`

	// Params is the library-specific parameter tree.
	Params map[string]any `json:"params"`

	// Children are embedded sub-fragments (e.g. quiz questions).
	Children []*Fragment `json:"children,omitempty"`

	// MediaRefs lists canonical media paths this fragment uses, kept
	// for the Builder's check that every media reference resolves in
	// the media manifest.
	MediaRefs []string `json:"-"`
}

// NewFragment creates a fragment of the given type and library. The
// sub-content id is assigned later by the Builder, which rewrites
// duplicates.
func NewFragment(contentType string, lib LibraryRef) *Fragment {
	return &Fragment{
		Type:    contentType,
		Library: lib,
		Params:  make(map[string]any),
	}
}

// AddChild appends an embedded sub-fragment.
func (f *Fragment) AddChild(child *Fragment) *Fragment {
	f.Children = append(f.Children, child)
	return f
}

// ReferenceMedia records that this fragment uses the given canonical
// media path (e.g. "images/0.jpg").
func (f *Fragment) ReferenceMedia(canonicalPath string) *Fragment {
	f.MediaRefs = append(f.MediaRefs, canonicalPath)
	return f
}

// AllMediaRefs returns media references of this fragment and every
// descendant, used by Builder.Validate to cross-check the manifest.
func (f *Fragment) AllMediaRefs() []string {
	refs := append([]string(nil), f.MediaRefs...)
	for _, child := range f.Children {
		refs = append(refs, child.AllMediaRefs()...)
	}
	return refs
}
