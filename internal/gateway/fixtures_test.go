package gateway

import (
	"context"
	"net/http"

	"github.com/edgegate/edgegate/pkg/gwplugin"
)

// taggingPlugin is a minimal ResponseFilter fixture used to verify the
// proxy path runs response_filter before writing headers downstream.
type taggingPlugin struct{}

func (taggingPlugin) ResponseFilter(ctx context.Context, sess *gwplugin.Session, header http.Header, pc *gwplugin.Ctx) error {
	header.Set("X-Tagged", "true")
	return nil
}
