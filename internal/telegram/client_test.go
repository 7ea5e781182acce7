package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithBaseURL("TEST-TOKEN", srv.URL), srv
}

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest

	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		io.WriteString(w, `{"ok":true,"result":{}}`)
	})

	if err := client.SendMessage(context.Background(), 42, "hola"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if gotPath != "/botTEST-TOKEN/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody.ChatID != 42 || gotBody.Text != "hola" {
		t.Fatalf("unexpected body %+v", gotBody)
	}
}

func TestSendMessageAPIError(t *testing.T) {
	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"ok":false,"description":"Forbidden: bot was kicked"}`)
	})

	err := client.SendMessage(context.Background(), 42, "hola")
	if err == nil {
		t.Fatal("expected error from non-ok response")
	}
	if !strings.Contains(err.Error(), "bot was kicked") {
		t.Fatalf("error %q should carry the API description", err)
	}
}

func TestSendChoicePromptBuildsKeyboard(t *testing.T) {
	var gotBody sendMessageRequest
	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{"ok":true,"result":{}}`)
	})

	choices := []Choice{
		{Label: "👍 Normal", Token: "poop_ok"},
		{Label: "❌ No caca", Token: "poop_none"},
	}
	if err := client.SendChoicePrompt(context.Background(), 42, "¿Cómo ha hecho la caca?", choices); err != nil {
		t.Fatalf("SendChoicePrompt: %v", err)
	}

	kb := gotBody.ReplyMarkup
	if kb == nil || len(kb.InlineKeyboard) != 2 {
		t.Fatalf("expected 2 keyboard rows, got %+v", kb)
	}
	if kb.InlineKeyboard[0][0].CallbackData != "poop_ok" {
		t.Fatalf("unexpected first button %+v", kb.InlineKeyboard[0][0])
	}
	if kb.InlineKeyboard[1][0].Text != "❌ No caca" {
		t.Fatalf("unexpected second button %+v", kb.InlineKeyboard[1][0])
	}
}

func TestGetUpdates(t *testing.T) {
	var gotReq getUpdatesRequest
	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		io.WriteString(w, `{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"from":{"id":7,"first_name":"Marina"},"chat":{"id":-100,"type":"group","title":"Dora"},"text":"/paseo"}},
			{"update_id":11,"callback_query":{"id":"cb1","from":{"id":7,"first_name":"Marina"},"data":"poop_ok"}}
		]}`)
	})

	updates, err := client.GetUpdates(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if gotReq.Offset != 10 {
		t.Fatalf("expected offset 10, got %d", gotReq.Offset)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if updates[0].Message == nil || updates[0].Message.Text != "/paseo" {
		t.Fatalf("unexpected first update %+v", updates[0])
	}
	if updates[1].CallbackQuery == nil || updates[1].CallbackQuery.Data != "poop_ok" {
		t.Fatalf("unexpected second update %+v", updates[1])
	}
}

func TestSendDocumentMultipart(t *testing.T) {
	var gotChatID, gotFilename, gotContent string
	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotChatID = r.FormValue("chat_id")
		file, header, err := r.FormFile("document")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			defer file.Close()
			gotFilename = header.Filename
			b, _ := io.ReadAll(file)
			gotContent = string(b)
		}
		io.WriteString(w, `{"ok":true,"result":{}}`)
	})

	err := client.SendDocument(context.Background(), 42, "dora_walks.csv", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
	if gotChatID != "42" || gotFilename != "dora_walks.csv" || gotContent != "a,b\n1,2\n" {
		t.Fatalf("unexpected upload: chat=%q file=%q content=%q", gotChatID, gotFilename, gotContent)
	}
}

func TestUserFullName(t *testing.T) {
	if got := (User{FirstName: "Marina"}).FullName(); got != "Marina" {
		t.Fatalf("got %q", got)
	}
	if got := (User{FirstName: "Marina", LastName: "Rosell"}).FullName(); got != "Marina Rosell" {
		t.Fatalf("got %q", got)
	}
}
