package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onap/aai-gizmo-sub001/internal/testutil"
)

// fakeS3 serves the two calls the service makes, path-style.
func fakeS3(t *testing.T, objects map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
		if len(parts) == 1 || parts[1] == "" {
			prefix := r.URL.Query().Get("prefix")
			var contents strings.Builder
			n := 0
			for key, body := range objects {
				if strings.HasPrefix(key, prefix) {
					fmt.Fprintf(&contents, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", key, len(body))
					n++
				}
			}
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>`+
				`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`+
				`<Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys>`+
				`<IsTruncated>false</IsTruncated>%s</ListBucketResult>`, parts[0], prefix, n, contents.String())
			return
		}
		body, ok := objects[parts[1]]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		fmt.Fprint(w, body)
	}))
}

func newTestService(t *testing.T, srv *httptest.Server) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), Config{
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	}, testutil.NewTestLogger())
	require.NoError(t, err)
	return svc
}

func TestListAndGet(t *testing.T) {
	srv := fakeS3(t, map[string]string{
		"schema/relationships_v11.yaml": "rules: []\n",
		"schema/vertices_v11.yaml":      "vertices: {}\n",
		"other/readme.txt":              "ignored",
	})
	defer srv.Close()
	svc := newTestService(t, srv)
	ctx := context.Background()

	keys, err := svc.ListKeys(ctx, "gizmo", "schema/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"schema/relationships_v11.yaml", "schema/vertices_v11.yaml"}, keys)

	data, err := svc.GetObject(ctx, "gizmo", "schema/relationships_v11.yaml")
	require.NoError(t, err)
	assert.Equal(t, "rules: []\n", string(data))

	_, err = svc.GetObject(ctx, "gizmo", "schema/missing.yaml")
	assert.Error(t, err)
}

func TestDisabledService(t *testing.T) {
	var svc *Service
	assert.False(t, svc.Enabled())
	_, err := svc.ListKeys(context.Background(), "b", "")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = svc.GetObject(context.Background(), "b", "k")
	assert.ErrorIs(t, err, ErrDisabled)
}
