package main

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// athleteInfo is the athlete summary Strava returns with the token.
type athleteInfo struct {
	ID        string
	FirstName string
	LastName  string
	Username  string
}

// authResult is what one completed authorization yields.
type authResult struct {
	Token   *oauth2.Token
	Athlete athleteInfo
	Err     error
}

// authSession holds the state of one authorization attempt. The callback
// handler accepts the first request carrying the expected state and reports
// it on done exactly once.
type authSession struct {
	conf   *oauth2.Config
	client *http.Client
	state  string
	done   chan authResult
	logger *slog.Logger
}

func newAuthSession(conf *oauth2.Config, client *http.Client, logger *slog.Logger) *authSession {
	return &authSession{
		conf:   conf,
		client: client,
		state:  uuid.NewString(),
		done:   make(chan authResult, 1),
		logger: logger,
	}
}

// AuthCodeURL is the page the user visits to grant access.
func (s *authSession) AuthCodeURL() string {
	return s.conf.AuthCodeURL(s.state, oauth2.SetAuthURLParam("approval_prompt", "auto"))
}

var resultPage = template.Must(template.New("result").Parse(`<html>
  <head><title>{{.Title}}</title></head>
  <body>
    <h1>{{.Title}}</h1>
    <p>{{.Body}}</p>
  </body>
</html>
`))

func (s *authSession) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/callback" {
		s.writePage(w, http.StatusNotFound, "404 Not Found", "")
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		s.writePage(w, http.StatusBadRequest, "Error: Authorization denied", e)
		s.finish(authResult{Err: fmt.Errorf("authorization denied: %s", e)})
		return
	}
	if q.Get("state") != s.state {
		s.writePage(w, http.StatusBadRequest, "Error: State mismatch", "Start the authorization again from the terminal.")
		return
	}
	code := q.Get("code")
	if code == "" {
		s.writePage(w, http.StatusBadRequest, "Error: No authorization code received", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	if s.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	}

	tok, err := s.conf.Exchange(ctx, code)
	if err != nil {
		s.logger.Error("Token exchange failed", "error", err)
		s.writePage(w, http.StatusInternalServerError, "Error: Token exchange failed", err.Error())
		s.finish(authResult{Err: fmt.Errorf("token exchange failed: %w", err)})
		return
	}

	s.writePage(w, http.StatusOK, "Authorization Successful!", "You can close this window and return to your terminal.")
	s.finish(authResult{Token: tok, Athlete: athleteFromToken(tok)})
}

func (s *authSession) finish(res authResult) {
	select {
	case s.done <- res:
	default:
	}
}

func (s *authSession) writePage(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	resultPage.Execute(w, struct{ Title, Body string }{title, body})
}

func athleteFromToken(tok *oauth2.Token) athleteInfo {
	raw, ok := tok.Extra("athlete").(map[string]interface{})
	if !ok {
		return athleteInfo{}
	}
	str := func(k string) string {
		switch v := raw[k].(type) {
		case string:
			return v
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
		return ""
	}
	return athleteInfo{
		ID:        str("id"),
		FirstName: str("firstname"),
		LastName:  str("lastname"),
		Username:  str("username"),
	}
}
