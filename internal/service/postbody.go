package service

import (
	"fmt"
	"strings"

	"imgvault/internal/models"

	"golang.org/x/net/html"
)

// CountEmbeddedImages counts img elements in a post body. The tokenizer
// tolerates malformed markup the way browsers do, so a missing close tag or
// stray bracket cannot hide an image from the count.
func CountEmbeddedImages(body string) int {
	tokenizer := html.NewTokenizer(strings.NewReader(body))

	count := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return count
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "img" {
				count++
			}
		}
	}
}

// ValidatePostBody rejects a post whose body embeds more images than the
// per-post limit allows. Assets already uploaded for the rejected body are
// left alone; unassociated ones age out through the orphan sweep.
func ValidatePostBody(body string, maxImagesPerPost int) error {
	count := CountEmbeddedImages(body)
	if count > maxImagesPerPost {
		return models.ValidationError{
			Kind: models.TooManyImages,
			Message: fmt.Sprintf("post embeds %d images, limit is %d",
				count, maxImagesPerPost),
		}
	}
	return nil
}
