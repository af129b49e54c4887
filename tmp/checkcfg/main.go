package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"docketline/internal/config"
	"docketline/internal/db"
	"docketline/internal/engine"
	"docketline/internal/migrate"
	"docketline/internal/server"
)

func main() {
	workspace := "/tmp/docketline-check"
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		panic(err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		panic(err)
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		panic(err)
	}
	cfg := config.Default("federal")
	e := engine.New(conn, cfg)
	h, err := server.New(server.Config{Engine: e, BasePath: "/v0"})
	if err != nil {
		panic(err)
	}
	ts := httptest.NewServer(h)
	defer ts.Close()

	matter := post(ts.URL+"/v0/matters", map[string]any{
		"title":       "Smoke v. Check",
		"case_number": "2:24-cv-00001",
	})
	matterID, _ := matter["id"].(string)
	fmt.Printf("matter=%s\n", matterID)

	ingest := post(ts.URL+"/v0/matters/"+matterID+"/filings", map[string]any{
		"file_name": "complaint.pdf",
		"text":      "COMPLAINT FOR DAMAGES\nServed on March 1, 2024.",
	})
	fmt.Printf("ingest=%v\n", ingest)
}

func post(url string, body map[string]any) map[string]any {
	b, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		panic(err)
	}
	defer res.Body.Close()
	var resp map[string]any
	_ = json.NewDecoder(res.Body).Decode(&resp)
	fmt.Printf("status=%d\n", res.StatusCode)
	return resp
}
