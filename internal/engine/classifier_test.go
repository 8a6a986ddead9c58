package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/lumenstack/lumen-rag/internal/models"
	"github.com/lumenstack/lumen-rag/internal/utils"
)

type fakeCompleter struct {
	fn    func(ctx context.Context, messages []models.ChatMessage) (string, error)
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	f.calls++
	return f.fn(ctx, messages)
}

func staticCompleter(reply string) *fakeCompleter {
	return &fakeCompleter{fn: func(context.Context, []models.ChatMessage) (string, error) {
		return reply, nil
	}}
}

func TestClassifyDomainLabels(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  models.DomainLabel
	}{
		{"small talk", "small_talk", models.DomainSmallTalk},
		{"out of domain", "out_of_domain", models.DomainOutOfDomain},
		{"in domain", "in_domain", models.DomainInDomain},
		{"wrapped reply", `The label is: "small_talk".`, models.DomainSmallTalk},
		{"hyphenated", "Out-of-domain", models.DomainOutOfDomain},
		{"garbage defaults to in domain", "I cannot classify this", models.DomainInDomain},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClassifier(staticCompleter(tc.reply), nil, utils.DiscardLogger())
			cls, err := c.Classify(context.Background(), "hi there", nil, models.ScopeInsights)
			if err != nil {
				t.Fatalf("Classify returned error: %v", err)
			}
			if cls.Domain != tc.want {
				t.Fatalf("domain = %s, want %s", cls.Domain, tc.want)
			}
		})
	}
}

func TestClassifyIntentPredicates(t *testing.T) {
	c := NewClassifier(staticCompleter("in_domain"), nil, utils.DiscardLogger())

	cls, err := c.Classify(context.Background(), "How many riders complained about the battery last month?", nil, models.ScopeForum)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if !cls.Statistical {
		t.Error("expected statistical flag for a how-many question")
	}

	cls, err = c.Classify(context.Background(), "What trends do you see in customer sentiment?", nil, models.ScopeInsights)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if !cls.BroadInsight {
		t.Error("expected broad-insight flag for a trends question")
	}
}

func TestClassifyCustomerNameScoping(t *testing.T) {
	c := NewClassifier(staticCompleter("in_domain"), nil, utils.DiscardLogger())

	cls, err := c.Classify(context.Background(), "Show me John Doe's messages about delivery", nil, models.ScopeMessaging)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if cls.CustomerName != "John Doe" {
		t.Fatalf("customer name = %q, want %q", cls.CustomerName, "John Doe")
	}

	cls, err = c.Classify(context.Background(), "Show me John Doe's messages about delivery", nil, models.ScopeForum)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if cls.CustomerName != "" {
		t.Fatalf("customer name = %q, want empty outside messaging scope", cls.CustomerName)
	}
}

func TestClassifyCompletionFailure(t *testing.T) {
	failing := &fakeCompleter{fn: func(context.Context, []models.ChatMessage) (string, error) {
		return "", errors.New("backend down")
	}}
	c := NewClassifier(failing, nil, utils.DiscardLogger())

	if _, err := c.Classify(context.Background(), "anything", nil, models.ScopeInsights); err == nil {
		t.Fatal("expected error when the completion backend fails")
	}
}

func TestExtractCustomerName(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"what did customer Jane Smith say last week", "Jane Smith"},
		{"summarize the thread for Priya Nair", "Priya Nair"},
		{"Show me Marcus O'Brien's complaints", "Marcus O'Brien"},
		{"did anyone mention brake noise", ""},
		{"", ""},
		{"Battery Problems are common", ""},
	}

	for _, tc := range cases {
		if got := extractCustomerName(tc.text); got != tc.want {
			t.Errorf("extractCustomerName(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
