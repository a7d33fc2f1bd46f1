package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillstack/pkg/defaults"
	"github.com/jingkaihe/skillstack/pkg/matrix"
	"github.com/jingkaihe/skillstack/pkg/resolver"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	m := matrix.New("2.0.0")
	m.AddCategory(&matrix.Category{ID: "web", Name: "Web", Order: 1})
	m.AddCategory(&matrix.Category{ID: "framework", Name: "Framework", Parent: "web", Exclusive: true})
	m.AddCategory(&matrix.Category{ID: "testing", Name: "Testing", Order: 2})
	m.AddSkill(&matrix.Skill{ID: "react", Alias: "r", Name: "React", Category: "framework",
		ConflictsWith: []matrix.Relation{{SkillID: "vue", Reason: "Pick one"}}})
	m.AddSkill(&matrix.Skill{ID: "vue", Name: "Vue", Category: "framework"})
	m.AddSkill(&matrix.Skill{ID: "vitest", Name: "Vitest", Category: "testing"})
	m.AddStack(&matrix.Stack{ID: "spa", Name: "SPA", Skills: []string{"r", "vitest"}})
	m.Link()

	s, err := New(&Config{Host: "localhost", Port: 8080}, resolver.New(m), defaults.Builtin())
	require.NoError(t, err)
	return s
}

func doRequest(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		config        *Config
		expectedError string
	}{
		{name: "valid config", config: &Config{Host: "localhost", Port: 8080}},
		{name: "empty host", config: &Config{Port: 8080}, expectedError: "host cannot be empty"},
		{name: "port too low", config: &Config{Host: "localhost"}, expectedError: "port must be between 1 and 65535"},
		{name: "port too high", config: &Config{Host: "localhost", Port: 65536}, expectedError: "port must be between 1 and 65535"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServer_handleListCategories(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, "GET", "/api/categories?selected=react", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Version    string `json:"version"`
		Categories []struct {
			ID            string `json:"id"`
			SkillCount    int    `json:"skillCount"`
			Subcategories []struct {
				ID          string `json:"id"`
				AllDisabled bool   `json:"allDisabled"`
			} `json:"subcategories"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2.0.0", resp.Version)
	require.Len(t, resp.Categories, 2)
	assert.Equal(t, "web", resp.Categories[0].ID)
	assert.Equal(t, 0, resp.Categories[0].SkillCount)
	require.Len(t, resp.Categories[0].Subcategories, 1)
	assert.Equal(t, "framework", resp.Categories[0].Subcategories[0].ID)
	assert.False(t, resp.Categories[0].Subcategories[0].AllDisabled, "react stays selectable")
	assert.Equal(t, "testing", resp.Categories[1].ID)
}

func TestServer_handleCategorySkills(t *testing.T) {
	s := newTestServer(t)

	t.Run("selection state", func(t *testing.T) {
		w := doRequest(t, s, "GET", "/api/categories/framework/skills?selected=r", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Skills []resolver.SkillOption `json:"skills"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Skills, 2)
		assert.Equal(t, "react", resp.Skills[0].ID)
		assert.True(t, resp.Skills[0].Selected)
		assert.Equal(t, "vue", resp.Skills[1].ID)
		assert.True(t, resp.Skills[1].Disabled)
		assert.Equal(t, "Pick one (conflicts with React)", resp.Skills[1].DisabledReason)
	})

	t.Run("expert mode", func(t *testing.T) {
		w := doRequest(t, s, "GET", "/api/categories/framework/skills?selected=react&expert=true", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Skills []resolver.SkillOption `json:"skills"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Skills[1].Disabled)
	})

	t.Run("unknown category", func(t *testing.T) {
		w := doRequest(t, s, "GET", "/api/categories/nope/skills", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_handleGetSkill(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, "GET", "/api/skills/r", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var skill matrix.Skill
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &skill))
	assert.Equal(t, "react", skill.ID)

	w = doRequest(t, s, "GET", "/api/skills/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_handleListStacks(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, "GET", "/api/stacks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Stacks []matrix.Stack `json:"stacks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Stacks, 1)
	assert.Equal(t, "spa", resp.Stacks[0].ID)
}

func TestServer_handleValidate(t *testing.T) {
	s := newTestServer(t)

	t.Run("conflicting selection", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/api/validate", []byte(`{"skills":["r","vue"]}`))
		require.Equal(t, http.StatusOK, w.Code)

		var resp ValidateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Valid)
		assert.Equal(t, []string{"react", "vue"}, resp.Skills)

		var types []resolver.IssueType
		for _, issue := range resp.Errors {
			types = append(types, issue.Type)
		}
		assert.Contains(t, types, resolver.IssueConflict)
		assert.Contains(t, types, resolver.IssueCategoryExclusive)
		assert.Equal(t, []string{"react", "vue"}, resp.Agents["frontend-developer"])
	})

	t.Run("stack", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/api/validate", []byte(`{"stack":"spa"}`))
		require.Equal(t, http.StatusOK, w.Code)

		var resp ValidateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Valid)
		assert.Equal(t, []string{"react", "vitest"}, resp.Skills)
	})

	t.Run("unknown stack", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/api/validate", []byte(`{"stack":"nope"}`))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad body", func(t *testing.T) {
		w := doRequest(t, s, "POST", "/api/validate", []byte(`{`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		w := doRequest(t, s, "GET", "/api/validate", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
