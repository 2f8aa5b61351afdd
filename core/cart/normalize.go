package cart

import "strings"

// The backend image column tops out at 500 characters, and embedded
// data URLs blow far past that.
const maxImageURLLen = 500

const dataURLPrefix = "data:"

// Normalize reconciles the legacy single-image field with the images
// list: a record carrying only product_image gets images=[product_image].
// Images are never invented from nothing. Display code downstream can
// assume Images is the one canonical source.
func Normalize(it Item) Item {
	if len(it.Images) == 0 && it.ProductImage != "" {
		it.Images = []string{it.ProductImage}
	}
	return it
}

// SanitizeImageURL prepares an image URL for the remote cart API.
// Embedded-data URLs are dropped to empty, over-long URLs are truncated;
// relative and absolute network URLs pass through unchanged.
func SanitizeImageURL(u string) string {
	if strings.HasPrefix(u, dataURLPrefix) {
		return ""
	}
	if len(u) > maxImageURLLen {
		return u[:maxImageURLLen]
	}
	return u
}

// SanitizeOutbound applies SanitizeImageURL to every image field of an
// item before it is handed to the remote adapter. Entries sanitized to
// empty are removed from the list.
func SanitizeOutbound(it Item) Item {
	if len(it.Images) > 0 {
		imgs := make([]string, 0, len(it.Images))
		for _, u := range it.Images {
			if s := SanitizeImageURL(u); s != "" {
				imgs = append(imgs, s)
			}
		}
		if len(imgs) == 0 {
			imgs = nil
		}
		it.Images = imgs
	}
	it.ProductImage = SanitizeImageURL(it.ProductImage)
	return it
}
