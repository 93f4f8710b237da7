package validation

import (
	"strings"
	"testing"

	"inkwell/internal/imagehost"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	appErr, ok := AsAppError(err).(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T", AsAppError(err))
	assert.Equal(t, models.CodeValidation, appErr.Code)
	return appErr.Fields
}

func TestArticle_Valid(t *testing.T) {
	err := Article(ArticleFields{
		Title:    "Next.js Basics",
		Category: "Web",
		Content:  "<p>Hello there, world</p>",
	}, &imagehost.Media{Data: pngHeader}, true, 1024)
	assert.NoError(t, err)
}

func TestArticle_ReportsAllFields(t *testing.T) {
	err := Article(ArticleFields{Title: "ab", Category: "", Content: "   short   "}, nil, true, 1024)
	require.Error(t, err)

	fields := fieldsOf(t, err)
	assert.Len(t, fields, 4)
	assert.Contains(t, fields["title"], "between 3 and 100")
	assert.Equal(t, "Category is required", fields["category"])
	assert.Contains(t, fields["content"], "at least 10")
	assert.Equal(t, "Featured image is required", fields[FeaturedImageKey])
}

func TestArticle_Bounds(t *testing.T) {
	ok := ArticleFields{Title: strings.Repeat("t", TitleMax), Category: strings.Repeat("c", CategoryMax), Content: strings.Repeat("x", ContentMin)}
	assert.NoError(t, Article(ok, nil, false, 0))

	long := ok
	long.Title = strings.Repeat("t", TitleMax+1)
	long.Category = strings.Repeat("c", CategoryMax+1)
	fields := fieldsOf(t, Article(long, nil, false, 0))
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "category")

	// multi-byte characters count once
	unicode := ok
	unicode.Title = strings.Repeat("é", TitleMax)
	assert.NoError(t, Article(unicode, nil, false, 0))
}

func TestMedia(t *testing.T) {
	assert.NoError(t, Media(nil, false, 10))
	assert.Error(t, Media(nil, true, 10))
	assert.Error(t, Media(&imagehost.Media{}, true, 10))
	assert.Error(t, Media(&imagehost.Media{Data: []byte("plain text, not an image")}, false, 1024))
	assert.Error(t, Media(&imagehost.Media{Data: pngHeader}, false, 4))
	assert.NoError(t, Media(&imagehost.Media{Data: pngHeader}, false, 0))
}

func TestComment(t *testing.T) {
	assert.NoError(t, Comment("  nice post  "))

	fields := fieldsOf(t, Comment("   "))
	assert.Equal(t, "Comment cannot be empty", fields["body"])

	fields = fieldsOf(t, Comment(strings.Repeat("a", CommentMax+1)))
	assert.Contains(t, fields["body"], "at most")
}

func TestAsAppError(t *testing.T) {
	assert.NoError(t, AsAppError(nil))
	assert.True(t, models.HasCode(AsAppError(assert.AnError), models.CodeValidation))
}
