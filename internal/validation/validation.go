// Package validation checks article, comment and media input before it reaches the store.
package validation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"inkwell/internal/imagehost"
	"inkwell/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Field limits.
const (
	TitleMin          = 3
	TitleMax          = 100
	CategoryMin       = 3
	CategoryMax       = 50
	ContentMin        = 10
	CommentMax        = 10000
	FeaturedImageKey  = "featuredImage"
	defaultValidation = "Validation failed"
)

// ArticleFields are the text fields of the article form.
type ArticleFields struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

// Article validates the form fields and the featured image together so that
// every field error is reported at once. media may be nil when mediaRequired is false.
func Article(in ArticleFields, media *imagehost.Media, mediaRequired bool, maxBytes int64) error {
	errs := validation.Errors{}

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.Required.Error("Title is required"),
			validation.RuneLength(TitleMin, TitleMax).Error(fmt.Sprintf("Title must be between %d and %d characters", TitleMin, TitleMax)),
		),
		validation.Field(&in.Category,
			validation.Required.Error("Category is required"),
			validation.RuneLength(CategoryMin, CategoryMax).Error(fmt.Sprintf("Category must be between %d and %d characters", CategoryMin, CategoryMax)),
		),
		validation.Field(&in.Content,
			validation.Required.Error("Content is required"),
			validation.By(minTrimmed(ContentMin, fmt.Sprintf("Content must be at least %d characters", ContentMin))),
		),
	)
	if err != nil {
		var fieldErrs validation.Errors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for k, v := range fieldErrs {
			errs[k] = v
		}
	}

	errs[FeaturedImageKey] = Media(media, mediaRequired, maxBytes)
	return errs.Filter()
}

// Media checks size and content sniffing of an uploaded image.
func Media(media *imagehost.Media, required bool, maxBytes int64) error {
	if media == nil || len(media.Data) == 0 {
		if required {
			return validation.NewError("validation_image_required", "Featured image is required")
		}
		return nil
	}
	if maxBytes > 0 && int64(len(media.Data)) > maxBytes {
		return validation.NewError("validation_image_too_large",
			fmt.Sprintf("Featured image must be at most %d MB", maxBytes/(1024*1024)))
	}
	if !strings.HasPrefix(http.DetectContentType(media.Data), "image/") {
		return validation.NewError("validation_image_type", "Featured image must be an image file")
	}
	return nil
}

type commentFields struct {
	Body string `json:"body"`
}

// Comment validates a comment body. Surrounding whitespace does not count.
func Comment(body string) error {
	in := commentFields{Body: strings.TrimSpace(body)}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Body,
			validation.Required.Error("Comment cannot be empty"),
			validation.RuneLength(1, CommentMax).Error(fmt.Sprintf("Comment must be at most %d characters", CommentMax)),
		),
	)
}

// AsAppError converts ozzo validation errors into a VALIDATION_ERROR with a field map.
func AsAppError(err error) error {
	if err == nil {
		return nil
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return models.NewInternalError(err)
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for k, v := range fieldErrs {
			fields[k] = v.Error()
		}
		return models.NewFieldValidationError(defaultValidation, fields)
	}

	return models.NewValidationError(err.Error())
}

func minTrimmed(n int, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len([]rune(strings.TrimSpace(s))) < n {
			return errors.New(message)
		}
		return nil
	}
}
