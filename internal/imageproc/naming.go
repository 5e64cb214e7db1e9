package imageproc

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"resize4me/internal/models"
)

// ResizedPrefix is the key prefix batch mode writes derived variants under.
const ResizedPrefix = "resized/"

// DeriveKey names the variant of key resized to width with filter:
// resized/<base>-<width>__<FILTER><ext>. The original directory is dropped
// and the extension is kept as written.
func DeriveKey(key string, width int, filter models.Filter) string {
	name := path.Base(key)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s%s-%d__%s%s", ResizedPrefix, base, width, filter, ext)
}

// SizeLabel is the manifest label for a synchronous destination rule.
func SizeLabel(size int) string {
	return fmt.Sprintf("resized-%dpx", size)
}

// PublicURL builds <base>/<bucket>/<key> with the key query-escaped
// (space becomes '+', '/' becomes %2F).
func PublicURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, url.QueryEscape(key))
}
