package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func stageNames(p []bson.D) []string {
	out := make([]string, len(p))
	for i, st := range p {
		out[i] = st[0].Key
	}
	return out
}

func TestContributionsPipeline(t *testing.T) {
	tests := []struct {
		name       string
		maxEditors int
		want       []string
	}{
		{"unbounded", 0, []string{"$match", "$group", "$sort", "$lookup"}},
		{"bounded", 6, []string{"$match", "$group", "$sort", "$limit", "$lookup"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stageNames(contributionsPipeline(554, tt.maxEditors))
			if len(got) != len(tt.want) {
				t.Fatalf("stages = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("stage %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}

	p := contributionsPipeline(554, 6)
	if v := p[3][0].Value; v != int64(6) {
		t.Errorf("$limit = %v, want 6", v)
	}
}

func TestContributionDocDecode(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"_id":       int64(7),
		"editCount": int32(3),
		"userText":  "Kdahlquist",
		"user":      bson.A{bson.M{"_id": int64(7), "login": "Kdahlquist", "realName": "Kam", "groups": bson.A{"bot"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	var doc contributionDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if doc.UserID != 7 || doc.EditCount != 3 || len(doc.User) != 1 || doc.User[0].Groups[0] != "bot" {
		t.Errorf("decoded = %+v", doc)
	}
}
