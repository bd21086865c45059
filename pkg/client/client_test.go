package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haierkeys/block-note-service/internal/app"
	"github.com/haierkeys/block-note-service/internal/dao"
	"github.com/haierkeys/block-note-service/internal/routers"
	"github.com/haierkeys/block-note-service/pkg/block"
	"github.com/haierkeys/block-note-service/pkg/client"
	"github.com/haierkeys/block-note-service/pkg/notepath"
	"github.com/haierkeys/block-note-service/pkg/reconcile"
	"github.com/haierkeys/block-note-service/pkg/validator"

	"github.com/creasty/defaults"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.RegisterCustom()

	cfg := new(app.AppConfig)
	require.NoError(t, defaults.Set(cfg))
	cfg.Server.RunMode = "test"
	cfg.Database.Path = ":memory:"
	cfg.Security.AuthTokenKey = "client-test-key"
	cfg.App.RateLimitCapacity = 1000

	lg := zap.NewNop()
	db, err := dao.NewDBEngineWithConfig(cfg.DatabaseConfig(), lg)
	require.NoError(t, err)
	a, err := app.NewApp(cfg, lg, db)
	require.NoError(t, err)

	srv := httptest.NewServer(routers.NewRouter(a, ut.New(en.New(), en.New(), zh.New()), prometheus.NewRegistry()))
	t.Cleanup(func() {
		srv.Close()
		_ = a.Shutdown(context.Background())
	})
	return srv
}

func loggedIn(t *testing.T, srv *httptest.Server) *client.Client {
	t.Helper()
	ctx := context.Background()
	c := client.New(srv.URL, client.WithHTTPClient(srv.Client()))
	require.NoError(t, c.Register(ctx, "alice", "secret"))
	res, err := c.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Username)
	assert.NotEmpty(t, c.Token())
	return c
}

func TestAPIErrorEnvelope(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/notes/missing":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":600,"status":false,"message":"Note not found","details":"/missing","traceId":"t-1"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer stub.Close()

	c := client.New(stub.URL + "/")
	_, err := c.GetNote(context.Background(), "/missing")
	require.Error(t, err)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, 600, apiErr.Code)
	assert.Equal(t, "Note not found", apiErr.Message)
	assert.Equal(t, "t-1", apiErr.TraceID)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))

	_, err = c.ListNotes(context.Background())
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestInvalidPathNotSent(t *testing.T) {
	c := client.New("http://127.0.0.1:1")
	_, err := c.GetNote(context.Background(), "/a/../b")
	assert.ErrorIs(t, err, notepath.ErrInvalidPath)
}

func TestClientAgainstServer(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	anon := client.New(srv.URL, client.WithHTTPClient(srv.Client()))
	_, err := anon.ListNotes(ctx)
	assert.True(t, client.IsStatus(err, http.StatusUnauthorized))

	c := loggedIn(t, srv)
	count, err := c.UserCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	err = c.Register(ctx, "alice", "another-secret")
	assert.True(t, client.IsStatus(err, http.StatusConflict))

	err = c.Register(ctx, "bob", "abc")
	assert.True(t, client.IsStatus(err, http.StatusBadRequest))

	created, err := c.CreateNote(ctx, reconcile.NoteCreate{
		Title:  "Ideas",
		Path:   "/ideas/first draft",
		Blocks: []block.Block{{Type: block.Paragraph, Content: "First Idea"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "/ideas/first draft", created.Path)

	got, err := c.GetNote(ctx, "/ideas/first draft")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	require.Len(t, got.Blocks, 1)

	title := "Renamed"
	updated, err := c.UpdateNote(ctx, "/ideas/first draft", reconcile.NoteUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	hits, err := c.SearchNotes(ctx, "idea")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "/ideas/first draft", hits[0].Path)

	require.NoError(t, c.DeleteNote(ctx, "/ideas/first draft"))
	_, err = c.GetNote(ctx, "/ideas/first draft")
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
}

func TestSessionOverHTTP(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := loggedIn(t, srv)

	s := reconcile.NewSession(c)
	defer s.Close(ctx)

	n, err := s.CreateNote(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/new-note", n.Path)

	require.NoError(t, s.AddBlockAfter(ctx, reconcile.NoIndex, block.Paragraph))
	require.NoError(t, s.BeginEdit(0))
	require.NoError(t, s.Edit(0, "hello"))
	require.NoError(t, s.Blur(ctx))
	assert.Equal(t, reconcile.Viewing, s.State())

	stored, err := c.GetNote(ctx, "/new-note")
	require.NoError(t, err)
	require.Len(t, stored.Blocks, 1)
	assert.Equal(t, "hello", stored.Blocks[0].Content)

	require.NoError(t, s.Rename(ctx, "/alpha"))
	assert.Equal(t, "/alpha", s.Note().Path)

	second, err := s.CreateNote(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/new-note", second.Path)

	target, err := s.DeleteNote(ctx)
	require.NoError(t, err)
	assert.Equal(t, notepath.Path("/alpha"), target)
	require.NotNil(t, s.Note())
	assert.Equal(t, "hello", s.Blocks()[0].Content)
}
