package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

type fakeService struct {
	lookups  []blueprint.LookupRequest
	searches []blueprint.SearchRequest
	err      error
}

func (f *fakeService) Respond(_ context.Context, req blueprint.LookupRequest) (*blueprint.Message, error) {
	f.lookups = append(f.lookups, req)
	if f.err != nil {
		return nil, f.err
	}
	if !strings.Contains(req.Query, "rifter") {
		return nil, nil
	}
	return &blueprint.Message{Title: "Rifter Blueprint", Fields: []blueprint.Field{{Name: "Production", Value: "```\n```"}}}, nil
}

func (f *fakeService) Search(_ context.Context, req blueprint.SearchRequest) (*blueprint.SearchResponse, error) {
	f.searches = append(f.searches, req)
	return &blueprint.SearchResponse{Query: req.Query, Hits: []blueprint.SearchHit{{Name: "Rifter", Score: 0}}}, nil
}

func serve(t *testing.T, svc Service, lines ...string) []Response {
	t.Helper()
	s := NewServer(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n"))
	require.NoError(t, s.Serve(context.Background(), in, &out))

	var resps []Response
	sc := bufio.NewScanner(&out)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		var r Response
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		resps = append(resps, r)
	}
	return resps
}

// toolText extracts the text block of a tools/call result.
func toolText(t *testing.T, r Response) (string, bool) {
	t.Helper()
	b, err := json.Marshal(r.Result)
	require.NoError(t, err)
	var res ToolCallResult
	require.NoError(t, json.Unmarshal(b, &res))
	require.Len(t, res.Content, 1)
	return res.Content[0].Text, res.IsError
}

func TestInitializeAndList(t *testing.T) {
	resps := serve(t, &fakeService{},
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)
	require.Len(t, resps, 2)
	require.Nil(t, resps[0].Error)

	b, err := json.Marshal(resps[1].Result)
	require.NoError(t, err)
	var list ToolsListResult
	require.NoError(t, json.Unmarshal(b, &list))
	require.Len(t, list.Tools, 2)
	require.Equal(t, "blueprint_lookup", list.Tools[0].Name)
	require.Equal(t, "blueprint_search", list.Tools[1].Name)
	require.Equal(t, []string{"query"}, list.Tools[0].InputSchema.Required)
}

func TestToolsCallLookup(t *testing.T) {
	svc := &fakeService{}
	resps := serve(t, svc,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"blueprint_lookup","arguments":{"query":"rifter 4/2/1","mobile":true}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"blueprint_lookup","arguments":{"query":"zzz"}}}`,
	)
	require.Len(t, resps, 2)
	require.Equal(t, []blueprint.LookupRequest{{Query: "rifter 4/2/1", Mobile: true}, {Query: "zzz"}}, svc.lookups)

	text, isErr := toolText(t, resps[0])
	require.False(t, isErr)
	var hit lookupResult
	require.NoError(t, json.Unmarshal([]byte(text), &hit))
	require.True(t, hit.Found)
	require.Equal(t, "Rifter Blueprint", hit.Message.Title)

	text, isErr = toolText(t, resps[1])
	require.False(t, isErr)
	require.JSONEq(t, `{"found": false}`, text)
}

func TestToolsCallSearch(t *testing.T) {
	svc := &fakeService{}
	resps := serve(t, svc,
		`{"jsonrpc":"2.0","id":"a","method":"tools/call","params":{"name":"blueprint_search","arguments":{"query":"rif","limit":500}}}`,
	)
	require.Len(t, resps, 1)
	require.Equal(t, "a", resps[0].ID)
	require.Equal(t, 50, svc.searches[0].Limit)

	text, _ := toolText(t, resps[0])
	var sr blueprint.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(text), &sr))
	require.Equal(t, "Rifter", sr.Hits[0].Name)
}

func TestToolErrors(t *testing.T) {
	resps := serve(t, &fakeService{err: errors.New("db closed")},
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"blueprint_lookup","arguments":{"query":"rifter"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"nope","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"blueprint_lookup","arguments":{"query":"  "}}}`,
	)
	require.Len(t, resps, 3)
	for _, r := range resps {
		require.Nil(t, r.Error)
		_, isErr := toolText(t, r)
		require.True(t, isErr)
	}
}

func TestProtocolErrors(t *testing.T) {
	resps := serve(t, &fakeService{},
		`not json`,
		`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":"bad"}`,
	)
	require.Len(t, resps, 3)
	require.Equal(t, ErrCodeParse, resps[0].Error.Code)
	require.Equal(t, ErrCodeMethodNotFound, resps[1].Error.Code)
	require.Equal(t, ErrCodeInvalidParams, resps[2].Error.Code)
}
