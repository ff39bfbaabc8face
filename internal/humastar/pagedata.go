// pagedata.go: Reverse mapping: OpenAPI spec → page template data.
//
// BuildPageData extracts what the page template needs from the API: the
// data-signals init JSON and the path of every operation the page calls,
// keyed by operation id, so the HTML never hardcodes URLs.
package humastar

import (
	"encoding/json"
	"slices"

	"github.com/danielgtaylor/huma/v2"
)

// PageData holds everything a page template needs from the OpenAPI spec.
// Templates use {{.Signals}} for data-signals init and
// {{.Route "compose-submit"}} for endpoint paths.
type PageData struct {
	Signals string
	Routes  map[string]string
}

// BuildPageData collects the operations tagged with one of tags and encodes
// signals for the page's data-signals attribute.
func BuildPageData(api huma.API, signals map[string]any, tags ...string) (PageData, error) {
	raw, err := json.Marshal(signals)
	if err != nil {
		return PageData{}, err
	}
	return PageData{
		Signals: string(raw),
		Routes:  DiscoverRoutes(api, tags...),
	}, nil
}

// DiscoverRoutes maps operation ids to paths for operations carrying one of
// tags.
func DiscoverRoutes(api huma.API, tags ...string) map[string]string {
	routes := map[string]string{}
	for p, pi := range api.OpenAPI().Paths {
		for _, op := range operationsOf(pi) {
			if op == nil || op.OperationID == "" {
				continue
			}
			if slices.ContainsFunc(op.Tags, func(t string) bool { return slices.Contains(tags, t) }) {
				routes[op.OperationID] = p
			}
		}
	}
	return routes
}

// Route returns the path of an operation with its {param} segments filled
// from params.
func (pd PageData) Route(operationID string, params ...string) string {
	return FillPath(pd.Routes[operationID], params...)
}
