package repository

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the repository type
type Type string

const (
	Hosted Type = "hosted"
	Proxy  Type = "proxy"
	Group  Type = "group"
)

// Types lists the repository types in display order
var Types = []Type{Hosted, Proxy, Group}

// ParseType converts s to a Type
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown repository type %q", ErrUnsupportedRecipe, s)
}

// Kind is a supported recipe and type combination
type Kind struct {
	Recipe string
	Type   Type
	// Format is the recipe name as the server knows it
	Format string
	// Upload is how files are uploaded to hosted repositories of this kind
	Upload UploadMethod
}

// RecipeName returns the server recipe name, e.g. maven2-hosted
func (k Kind) RecipeName() string {
	return k.Format + "-" + string(k.Type)
}

// UploadMethod selects how content is pushed to a hosted repository
type UploadMethod int

const (
	UploadNone UploadMethod = iota
	// UploadRaw posts raw.directory and raw.assetN fields to the components endpoint
	UploadRaw
	// UploadPut sends the file body to the repository content URL
	UploadPut
	// UploadComponent posts a single <recipe>.asset field to the components endpoint
	UploadComponent
)

// serverFormats maps recipes whose server format differs from their name
var serverFormats = map[string]string{
	"maven": "maven2",
}

var uploadMethods = map[string]UploadMethod{
	"raw":      UploadRaw,
	"yum":      UploadPut,
	"apt":      UploadComponent,
	"helm":     UploadComponent,
	"npm":      UploadComponent,
	"nuget":    UploadComponent,
	"pypi":     UploadComponent,
	"rubygems": UploadComponent,
}

var recipeTypes = map[string][]Type{
	"apt":      {Hosted, Proxy},
	"bower":    {Hosted, Proxy, Group},
	"docker":   {Hosted, Proxy, Group},
	"gitlfs":   {Hosted},
	"go":       {Proxy, Group},
	"helm":     {Hosted, Proxy},
	"maven":    {Hosted, Proxy, Group},
	"npm":      {Hosted, Proxy, Group},
	"nuget":    {Hosted, Proxy, Group},
	"pypi":     {Hosted, Proxy, Group},
	"raw":      {Hosted, Proxy, Group},
	"rubygems": {Hosted, Proxy, Group},
	"yum":      {Hosted, Proxy, Group},
}

var kinds = buildKinds()

func buildKinds() map[string]Kind {
	out := map[string]Kind{}
	for recipe, repoTypes := range recipeTypes {
		format := recipe
		if f, ok := serverFormats[recipe]; ok {
			format = f
		}
		for _, t := range repoTypes {
			kind := Kind{Recipe: recipe, Type: t, Format: format}
			if t == Hosted {
				kind.Upload = uploadMethods[recipe]
			}
			out[recipe+"-"+string(t)] = kind
		}
	}
	return out
}

// LookupKind returns the kind for recipe and repoType
func LookupKind(recipe string, repoType Type) (Kind, error) {
	kind, ok := kinds[strings.ToLower(recipe)+"-"+string(repoType)]
	if !ok {
		return Kind{}, fmt.Errorf("%w: %s-%s", ErrUnsupportedRecipe, recipe, repoType)
	}
	return kind, nil
}

// KindFromRecipeName resolves a server recipe name such as maven2-proxy
func KindFromRecipeName(recipeName string) (Kind, error) {
	format, repoType, ok := strings.Cut(recipeName, "-")
	if !ok {
		return Kind{}, fmt.Errorf("%w: %s", ErrUnsupportedRecipe, recipeName)
	}
	recipe := format
	for r, f := range serverFormats {
		if f == format {
			recipe = r
		}
	}
	return LookupKind(recipe, Type(repoType))
}

// Recipes returns the recipes available for repoType
func Recipes(repoType Type) []string {
	var recipes []string
	for _, kind := range kinds {
		if kind.Type == repoType {
			recipes = append(recipes, kind.Recipe)
		}
	}
	sort.Strings(recipes)
	return recipes
}

// Kinds returns every supported kind sorted by recipe then type
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, kind)
	}
	order := map[Type]int{Hosted: 0, Proxy: 1, Group: 2}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Recipe != out[j].Recipe {
			return out[i].Recipe < out[j].Recipe
		}
		return order[out[i].Type] < order[out[j].Type]
	})
	return out
}
