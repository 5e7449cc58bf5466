package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textLib() LibraryRef {
	return LibraryRef{MachineName: "H5P.AdvancedText", MajorVersion: 1, MinorVersion: 1}
}

func TestBuilder_BuildSimpleBook(t *testing.T) {
	b := NewBuilder("Intro to Go", "en", nil)
	b.AddChapter("Chapter 1").AddTextPage(textLib(), "<p>hello</p>")

	got, media, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "Intro to Go", got.Title)
	require.Len(t, got.Chapters, 1)
	require.Len(t, got.Chapters[0].Fragments, 1)
	assert.NotEmpty(t, got.Chapters[0].Fragments[0].SubContentID)
	assert.Equal(t, 0, media.Count())
}

func TestBuilder_NoChaptersFails(t *testing.T) {
	b := NewBuilder("Empty", "en", nil)
	_, _, err := b.Build()
	assert.Error(t, err)
}

func TestBuilder_ChapterWithNoFragmentsFails(t *testing.T) {
	b := NewBuilder("Book", "en", nil)
	b.AddChapter("Empty chapter")
	_, _, err := b.Build()
	assert.Error(t, err)
}

func TestBuilder_DuplicateSubContentIDsRewritten(t *testing.T) {
	b := NewBuilder("Book", "en", nil)
	ch := b.AddChapter("Chapter 1")

	f1 := NewFragment("text", textLib())
	f1.SubContentID = "fixed-id"
	f1.Params["text"] = "a"
	ch.AddFragment(f1)

	f2 := NewFragment("text", textLib())
	f2.SubContentID = "fixed-id"
	f2.Params["text"] = "b"
	ch.AddFragment(f2)

	got, _, err := b.Build()
	require.NoError(t, err)
	assert.NotEqual(t, got.Chapters[0].Fragments[0].SubContentID, got.Chapters[0].Fragments[1].SubContentID)
}

func TestBuilder_UnregisteredMediaFails(t *testing.T) {
	b := NewBuilder("Book", "en", nil)
	ch := b.AddChapter("Chapter 1")

	f := NewFragment("image", LibraryRef{MachineName: "H5P.Image", MajorVersion: 1, MinorVersion: 1})
	f.Params["file"] = map[string]any{"path": "images/0.jpg"}
	f.ReferenceMedia("images/0.jpg")
	ch.AddFragment(f)

	_, _, err := b.Build()
	assert.Error(t, err)
}

func TestBuilder_ImagePageRegistersMediaFirst(t *testing.T) {
	b := NewBuilder("Book", "en", nil)
	ch := b.AddChapter("Chapter 1")
	path := ch.Media().Register(MediaKindImage, []byte("fake"), "image/jpeg", "jpg")
	ch.AddImagePage(LibraryRef{MachineName: "H5P.Image", MajorVersion: 1, MinorVersion: 1}, path, "a diagram")

	got, media, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 1, media.Count())
	assert.Equal(t, "a diagram", got.Chapters[0].Fragments[0].Params["alt"])
}

type fakeValidator struct {
	err error
}

func (f fakeValidator) ValidateFragment(lib LibraryRef, params map[string]any) error {
	return f.err
}

func TestBuilder_ValidatorRejectsFragment(t *testing.T) {
	b := NewBuilder("Book", "en", fakeValidator{err: assert.AnError})
	b.AddChapter("Chapter 1").AddTextPage(textLib(), "<p>hi</p>")

	_, _, err := b.Build()
	assert.Error(t, err)
}

func TestResolveAIConfig_CascadesIndependently(t *testing.T) {
	book := &AIConfig{TargetAudience: "grade-10", Tone: "formal"}
	chapter := &AIConfig{Tone: "playful"}
	item := &AIConfig{Customization: "use nautical metaphors"}

	resolved := ResolveAIConfig(item, chapter, book)
	assert.Equal(t, "grade-10", resolved.TargetAudience)
	assert.Equal(t, "playful", resolved.Tone)
	assert.Equal(t, "use nautical metaphors", resolved.Customization)
}

func TestResolveAIConfig_DefaultsWhenAllNil(t *testing.T) {
	resolved := ResolveAIConfig(nil, nil, nil)
	assert.Equal(t, "grade-6", resolved.TargetAudience)
	assert.Equal(t, "educational", resolved.Tone)
	assert.Equal(t, "", resolved.Customization)
}
