package handler_test

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/stevemurr/cafe-server/auth"
	"github.com/stevemurr/cafe-server/handler"
)

func TestLogin(t *testing.T) {
	ts := setup(t, handler.Options{})

	resp, raw := ts.do(t, http.MethodPost, "/api/login", map[string]any{
		"email": "admin@cafeteria.com", "password": "admin123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"1","email":"admin@cafeteria.com","name":"Administrador","role":"admin"}`, string(raw))

	resp, raw = ts.do(t, http.MethodPost, "/api/login", map[string]any{
		"email": "ana@correo.co", "password": "secreto",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "customer", decodeJSON(t, raw)["role"])

	resp, raw = ts.do(t, http.MethodPost, "/api/login", map[string]any{
		"email": "admin@cafeteria.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Credenciales inválidas"}`, string(raw))

	resp, _ = ts.do(t, http.MethodPost, "/api/login", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginCustomVerifier(t *testing.T) {
	ts := setup(t, handler.Options{Verifier: auth.NewStaticVerifier(false, auth.DemoAccount)})
	resp, _ := ts.do(t, http.MethodPost, "/api/login", map[string]any{
		"email": "ana@correo.co", "password": "secreto",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	ts := setup(t, handler.Options{})

	resp, raw := ts.do(t, http.MethodPost, "/api/register", map[string]any{
		"name": "Ana", "email": "Ana@Correo.co", "password": "secreto", "confirmPassword": "secreto",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"id":1,"name":"Ana","email":"ana@correo.co","role":"customer"}`, string(raw))

	resp, raw = ts.do(t, http.MethodGet, "/api/usuarios/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, decodeJSON(t, raw), "password")

	resp, _ = ts.do(t, http.MethodPost, "/api/register", map[string]any{
		"name": "Ana bis", "email": "ana@correo.co", "password": "secreto",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, raw = ts.do(t, http.MethodPost, "/api/register", map[string]any{
		"name": "Beto", "email": "beto@correo.co", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"La contraseña debe tener al menos 6 caracteres"}`, string(raw))
}

func TestConcurrentRegistrationsOfOneEmail(t *testing.T) {
	ts := setup(t, handler.Options{})
	const n = 10

	codes := make([]int, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			body := bytes.NewReader(mustJSON(t, map[string]any{
				"name": fmt.Sprintf("Ana %d", i), "email": "ana@correo.co", "password": "secreto",
			}))
			resp, err := http.Post(ts.URL+"/api/register", "application/json", body)
			if err != nil {
				return err
			}
			resp.Body.Close()
			codes[i] = resp.StatusCode
			return nil
		})
	}
	require.NoError(t, g.Wait())

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, created)

	_, raw := ts.do(t, http.MethodGet, "/api/usuarios", nil)
	assert.Len(t, decodeJSONArray(t, raw), 1)
}

func TestRegisterNeedsUsersCollection(t *testing.T) {
	ts := setup(t, handler.Options{Entities: []string{"productos"}})
	resp, _ := ts.do(t, http.MethodPost, "/api/register", map[string]any{
		"name": "Ana", "email": "ana@correo.co", "password": "secreto",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
