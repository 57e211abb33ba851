package strategy

import "encoding/json"

// AnalyzeJSON emits a File node and, when the document is an OpenAPI spec
// (openapi or swagger key plus a paths object), one APIRoute per method
// under each path.
func AnalyzeJSON(in *Input) *Result {
	res := newResult(in)

	var o openAPIDoc
	if err := json.Unmarshal(in.Source, &o); err != nil {
		return res
	}
	if o.OpenAPI == "" && o.Swagger == "" {
		return res
	}
	if len(o.Paths) == 0 {
		return res
	}
	addOpenAPIRoutes(in, res, &o)
	return res
}
