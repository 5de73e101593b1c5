package operations

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/jsonapi/document"
)

func TestParseOp(t *testing.T) {
	tests := []struct {
		value string
		want  Op
	}{
		{"add", OpAdd},
		{"update", OpUpdate},
		{"remove", OpRemove},
	}
	for _, tt := range tests {
		op, err := ParseOp(tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, op)
		assert.Equal(t, tt.value, op.String())
	}

	_, err := ParseOp("merge")
	assert.Error(t, err)
}

func TestUnmarshal_Create(t *testing.T) {
	payload := `{
		"op": "add",
		"data": {"type": "posts", "attributes": {"title": "Hello"}}
	}`

	var op Operation
	require.NoError(t, json.Unmarshal([]byte(payload), &op))

	assert.True(t, op.IsCreate())
	assert.False(t, op.IsUpdate())

	_, hasHref := op.Href()
	assert.False(t, hasHref)

	res, ok := op.Data().(document.Resource)
	require.True(t, ok)
	assert.Equal(t, "posts", res.Type())
}

func TestUnmarshal_UpdateByRef(t *testing.T) {
	payload := `{
		"op": "update",
		"ref": {"type": "posts", "id": "1"},
		"data": {"type": "posts", "id": "1", "attributes": {"title": "Changed"}}
	}`

	var op Operation
	require.NoError(t, json.Unmarshal([]byte(payload), &op))

	assert.True(t, op.IsUpdate())
	ref, ok := op.Ref()
	require.True(t, ok)
	assert.Equal(t, "posts", ref.Type)
	assert.Equal(t, "1", ref.ID)

	_, hasHref := op.Href()
	assert.False(t, hasHref, "href present only when the target was specified by href")
}

func TestUnmarshal_UpdateByHref(t *testing.T) {
	payload := `{
		"op": "update",
		"href": "/posts/1",
		"data": {"type": "posts", "id": "1", "attributes": {"title": "Changed"}}
	}`

	var op Operation
	require.NoError(t, json.Unmarshal([]byte(payload), &op))

	href, ok := op.Href()
	require.True(t, ok)
	assert.Equal(t, "/posts/1", href)

	_, hasRef := op.Ref()
	assert.False(t, hasRef)
}

func TestUnmarshal_RejectsRefAndHref(t *testing.T) {
	payload := `{
		"op": "update",
		"ref": {"type": "posts", "id": "1"},
		"href": "/posts/1"
	}`

	var op Operation
	assert.Error(t, json.Unmarshal([]byte(payload), &op))
}

func TestUnmarshal_UpdateToOne(t *testing.T) {
	payload := `{
		"op": "update",
		"ref": {"type": "posts", "id": "1", "relationship": "author"},
		"data": {"type": "users", "id": "7"}
	}`

	var op Operation
	require.NoError(t, json.Unmarshal([]byte(payload), &op))

	assert.True(t, op.IsUpdateToOne())
	assert.False(t, op.IsUpdateToMany())
	assert.False(t, op.IsUpdate())

	field, ok := op.Field()
	require.True(t, ok)
	assert.Equal(t, "author", field)

	assert.Equal(t, &document.Identifier{Type: "users", ID: "7"}, op.Data())
}

func TestUnmarshal_UpdateToOneClear(t *testing.T) {
	payload := `{
		"op": "update",
		"ref": {"type": "posts", "id": "1", "relationship": "author"},
		"data": null
	}`

	var op Operation
	require.NoError(t, json.Unmarshal([]byte(payload), &op))

	assert.True(t, op.IsUpdateToOne())
	assert.Nil(t, op.Data())
}

func TestUnmarshal_UpdateToMany(t *testing.T) {
	payload := `{
		"op": "add",
		"ref": {"type": "posts", "id": "1", "relationship": "tags"},
		"data": [{"type": "tags", "id": "2"}, {"type": "tags", "id": "3"}]
	}`

	var op Operation
	require.NoError(t, json.Unmarshal([]byte(payload), &op))

	assert.True(t, op.IsUpdateToMany())
	assert.False(t, op.IsCreate())

	field, ok := op.Field()
	require.True(t, ok)
	assert.Equal(t, "tags", field)

	ids, ok := op.Data().([]document.Identifier)
	require.True(t, ok)
	assert.Len(t, ids, 2)
}

func TestUnmarshal_Delete(t *testing.T) {
	payload := `{
		"op": "remove",
		"ref": {"type": "posts", "id": "1"},
		"meta": {"reason": "spam"}
	}`

	var op Operation
	require.NoError(t, json.Unmarshal([]byte(payload), &op))

	assert.True(t, op.IsDelete())
	assert.Equal(t, map[string]interface{}{"reason": "spam"}, op.Meta())
}

func TestUnmarshal_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"unknown op", `{"op": "merge"}`},
		{"remove without target", `{"op": "remove"}`},
		{"add without data", `{"op": "add"}`},
		{"ref without type", `{"op": "remove", "ref": {"id": "1"}}`},
		{"ref without id or lid", `{"op": "remove", "ref": {"type": "posts"}}`},
		{"relationship add without data", `{"op": "add", "ref": {"type": "posts", "id": "1", "relationship": "tags"}}`},
		{"relationship remove without data", `{"op": "remove", "ref": {"type": "posts", "id": "1", "relationship": "tags"}}`},
		{"relationship remove with null data", `{"op": "remove", "ref": {"type": "posts", "id": "1", "relationship": "tags"}, "data": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var op Operation
			assert.Error(t, json.Unmarshal([]byte(tt.payload), &op))
		})
	}
}

func TestUnmarshal_Batch(t *testing.T) {
	payload := `{
		"atomic:operations": [
			{"op": "add", "data": {"type": "posts", "attributes": {"title": "a"}}},
			{"op": "remove", "ref": {"type": "posts", "id": "9"}}
		]
	}`

	var batch struct {
		Operations []Operation `json:"atomic:operations"`
	}
	require.NoError(t, json.Unmarshal([]byte(payload), &batch))
	require.Len(t, batch.Operations, 2)
	assert.True(t, batch.Operations[0].IsCreate())
	assert.True(t, batch.Operations[1].IsDelete())
}

func TestConstructors(t *testing.T) {
	res, err := document.New("posts")
	require.NoError(t, err)

	create := NewCreate(res, nil)
	assert.True(t, create.IsCreate())

	_, err = NewUpdate(Ref{Type: "posts"}, res, nil)
	assert.Error(t, err, "resource ref requires id or lid")

	_, err = NewUpdateToOne(Ref{Type: "posts", ID: "1"}, nil, nil)
	assert.Error(t, err, "relationship ref requires a field name")

	toMany, err := NewUpdateToMany(OpRemove, Ref{Type: "posts", ID: "1", Relationship: "tags"},
		[]document.Identifier{{Type: "tags", ID: "2"}}, nil)
	require.NoError(t, err)
	assert.True(t, toMany.IsUpdateToMany())

	byLid, err := NewDelete(Ref{Type: "posts", Lid: "tmp-1"}, nil)
	require.NoError(t, err)
	assert.True(t, byLid.IsDelete())

	_, err = NewUpdateByHref("", res, nil)
	assert.Error(t, err)
}
