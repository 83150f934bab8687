package agent

import (
	"context"
	"testing"

	"github.com/hitoshi/chatbridge/internal/model"
)

func TestEchoAgent_Respond_EchoesLastUserMessage(t *testing.T) {
	in := []model.Message{
		{Role: model.RoleSystem, Content: "be brief"},
		{Role: model.RoleUser, Content: "first"},
		{Role: model.RoleAssistant, Content: "ok"},
		{Role: model.RoleUser, Content: "hello"},
	}

	out, err := EchoAgent{}.Respond(context.Background(), in, "sid", 1)
	if err != nil {
		t.Fatalf("Respond がエラーを返した: %v", err)
	}

	if len(out) != len(in)+1 {
		t.Fatalf("len(out) = %d, want %d", len(out), len(in)+1)
	}
	last := out[len(out)-1]
	if last.Role != model.RoleAssistant || last.Content != "hello" {
		t.Errorf("last = %+v, want assistant/hello", last)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestEchoAgent_Respond_NoUserMessage(t *testing.T) {
	out, err := EchoAgent{}.Respond(context.Background(), []model.Message{{Role: model.RoleSystem, Content: "sys"}}, "sid", 1)
	if err != nil {
		t.Fatalf("Respond がエラーを返した: %v", err)
	}
	if out[len(out)-1].Content != "sys" {
		t.Errorf("content = %q, want %q", out[len(out)-1].Content, "sys")
	}
}

func TestEchoAgent_Respond_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := (EchoAgent{}).Respond(ctx, []model.Message{{Role: model.RoleUser, Content: "hi"}}, "sid", 1); err == nil {
		t.Error("キャンセル済みコンテキストでエラーが返されなかった")
	}
}
