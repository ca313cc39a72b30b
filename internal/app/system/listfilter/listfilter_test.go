package listfilter

import (
	"errors"
	"net/url"
	"testing"

	"github.com/dalemusser/votehub/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testSpec = Spec{
	Fields: []Field{
		{Key: "nim", Path: "nim", Kind: String},
		{Key: "email", Path: "email", Kind: Email},
		{Key: "name", Path: "name", Kind: String},
		{Key: "yearClass", Path: "year_class", Kind: Number},
	},
	Search: []string{"nim", "email", "name"},
}

func TestBuild_Empty(t *testing.T) {
	p, err := Build(url.Values{}, testSpec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(p.Filter) != 0 {
		t.Errorf("expected empty filter, got %v", p.Filter)
	}
	if len(p.Sort) != 1 || p.Sort[0].Key != "_id" {
		t.Errorf("expected _id-only sort, got %v", p.Sort)
	}
	if p.Window.Limit != paging.PageSize || p.Window.Skip != 0 {
		t.Errorf("unexpected window %+v", p.Window)
	}
}

func TestBuild_ExactString(t *testing.T) {
	p, err := Build(url.Values{"nim": {" 13520001 "}}, testSpec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if p.Filter["nim"] != "13520001" {
		t.Errorf("nim filter = %v", p.Filter["nim"])
	}
}

func TestBuild_ExactEmailIsLowerCased(t *testing.T) {
	p, err := Build(url.Values{"email": {"Alpha@Example.COM"}}, testSpec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if p.Filter["email"] != "alpha@example.com" {
		t.Errorf("email filter = %v", p.Filter["email"])
	}
}

func TestBuild_WildcardString(t *testing.T) {
	p, err := Build(url.Values{"email": {"*@campus.edu"}}, testSpec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	rx, ok := p.Filter["email"].(primitive.Regex)
	if !ok {
		t.Fatalf("expected regex, got %T", p.Filter["email"])
	}
	if rx.Pattern != `^.*@campus\.edu$` {
		t.Errorf("pattern = %q", rx.Pattern)
	}
	if rx.Options != "i" {
		t.Errorf("options = %q", rx.Options)
	}
}

func TestBuild_Number(t *testing.T) {
	p, err := Build(url.Values{"yearClass": {"2021"}}, testSpec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if p.Filter["year_class"] != 2021 {
		t.Errorf("year_class filter = %v", p.Filter["year_class"])
	}
}

func TestBuild_BadNumber(t *testing.T) {
	_, err := Build(url.Values{"yearClass": {"twenty"}}, testSpec)
	if !errors.Is(err, ErrBadValue) {
		t.Errorf("expected ErrBadValue, got %v", err)
	}
}

func TestBuild_Search(t *testing.T) {
	p, err := Build(url.Values{"search": {"a.b"}}, testSpec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	or, ok := p.Filter["$or"].(bson.A)
	if !ok || len(or) != 3 {
		t.Fatalf("expected 3-way $or, got %v", p.Filter["$or"])
	}
	first := or[0].(bson.M)
	rx := first["nim"].(primitive.Regex)
	if rx.Pattern != `a\.b` || rx.Options != "i" {
		t.Errorf("unexpected search regex %+v", rx)
	}
}

func TestBuild_Sort(t *testing.T) {
	p, err := Build(url.Values{"sort": {"-yearClass, name,bogus,name"}}, testSpec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := bson.D{
		{Key: "year_class", Value: -1},
		{Key: "name", Value: 1},
		{Key: "_id", Value: 1},
	}
	if len(p.Sort) != len(want) {
		t.Fatalf("sort = %v, want %v", p.Sort, want)
	}
	for i := range want {
		if p.Sort[i] != want[i] {
			t.Errorf("sort[%d] = %v, want %v", i, p.Sort[i], want[i])
		}
	}
}

func TestBuild_Window(t *testing.T) {
	p, err := Build(url.Values{"limit": {"5"}, "skip": {"10"}}, testSpec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	opts := p.FindOptions()
	if *opts.Limit != 5 || *opts.Skip != 10 {
		t.Errorf("limit/skip = %d/%d", *opts.Limit, *opts.Skip)
	}
}

func TestBuild_IgnoresUnknownKeys(t *testing.T) {
	p, err := Build(url.Values{"password": {"x"}, "is_admin": {"true"}}, testSpec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(p.Filter) != 0 {
		t.Errorf("unknown keys leaked into filter: %v", p.Filter)
	}
}
