package embeddings

import (
	"os"
	"reflect"
	"testing"

	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/models"
)

func TestMain(m *testing.M) {
	if logger.Log == nil {
		if err := logger.Init("error", ""); err != nil {
			panic(err)
		}
	}
	os.Exit(m.Run())
}

func TestHeadlineContents(t *testing.T) {
	t.Run("joins title and summary", func(t *testing.T) {
		contents := HeadlineContents([]models.Headline{
			{Title: "Apple beats estimates", Summary: "Revenue up 8% on iPhone demand"},
			{Title: "Tesla recalls vehicles"},
		})

		want := []string{
			"Apple beats estimates: Revenue up 8% on iPhone demand",
			"Tesla recalls vehicles",
		}
		if !reflect.DeepEqual(contents, want) {
			t.Errorf("contents = %v, want %v", contents, want)
		}
	})

	t.Run("skips blank titles", func(t *testing.T) {
		contents := HeadlineContents([]models.Headline{
			{Title: "  ", Summary: "orphan summary"},
			{Title: "Kept"},
		})

		if len(contents) != 1 || contents[0] != "Kept" {
			t.Errorf("contents = %v, want just Kept", contents)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if contents := HeadlineContents(nil); len(contents) != 0 {
			t.Errorf("contents = %v, want empty", contents)
		}
	})
}

func TestVectorLiteral(t *testing.T) {
	got := vectorLiteral([]float32{0.5, -1, 0.25})
	want := "[0.5,-1,0.25]"
	if got != want {
		t.Errorf("vectorLiteral = %q, want %q", got, want)
	}
}
