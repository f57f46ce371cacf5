package llm

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

const parseRequestTmpl = `Extract the following fields from the user request and return them strictly in the schema provided.

Important:
- "products" must only contain actual items the user wants to buy (e.g., "iPhone 14", "Google Pixel 9 Pro XL").
- Do NOT treat colors, sizes, storage, conditions (e.g. "hazel", "128GB", "new") as products.
  Those are filters/attributes, not standalone products.
- If the user mentions only filters without restating the product, assume they apply to the previously requested product.

Schema fields:
- products: list of products the user is interested in (strings).
- max_products_count: integer. If not specified, set to {{.DefaultMaxProducts}}.
- include_configurations: boolean. If not specified, set to false.
  true = include related configurations (bundles or variations),
  false = only the exact product.

User request:
{{.Prompt}}
`

const expandQueriesTmpl = `You are generating search queries for the {{.Marketplace}} second-hand marketplace.

Rules:
- Output ONLY product search queries (no explanations).
- Do NOT add clarifiers like "used", "second-hand", etc.
- Generate {{.MinQueries}}–{{.MaxQueries}} distinct queries for each product, using common variations, synonyms, or spelling differences as they might appear on the marketplace.
{{- if .Language}}
- If applicable, descriptors must be in {{.Language}}.
{{- end}}
{{- if .IncludeConfigurations}}
- The user also accepts bundles and configurations that contain the product.
{{- end}}
- Return one entry per product, using the product name exactly as given.

Products to generate queries for:
{{range .Products}}- {{.}}
{{end}}`

const classifyTmpl = `Select only the listing IDs relevant to the user's desired products.

Rules:
- If include_configurations = true: keep listings that contain the desired product, even if part of a larger configuration/bundle.
- If include_configurations = false: keep only listings that sell exactly the desired product. Exclude configurations/bundles.
- Unless the product itself is an accessory, exclude listings that are accessories for the desired product.
- Only use IDs from the list below.

Include configurations: {{.IncludeConfigurations}}

User prompt:
{{.Prompt}}

User desired products:
{{join .Products ", "}}

Listings:
{{range $i, $t := .Titles}}[{{$i}}] {{$t}}
{{end}}`

const scoreTmpl = `Assign a score from 0 to 10 based on how well the ad matches the user's prompt and desired product.

Scoring rubric:
- 0 = Completely irrelevant (wrong product, category, or only accessories without the main product).
- 1–3 = Slightly related (mentions brand or vague category but not the desired product; or product is broken/non-functional).
- 4–6 = Somewhat relevant (mentions the product but missing key details, unclear condition, or mismatched context).
- 7–9 = Mostly relevant (the product matches the request, only minor wording/attribute mismatch).
- 10 = Perfect match (title and description clearly align with the prompt and desired product, with no contradictions).

Guidelines:
- Consider BOTH title and description together.
- Use semantic meaning, not just keyword overlap.
- Ignore SEO keyword stuffing or unrelated mentions if the actual product is clear.
- Do not give a high score if the ad is only for parts, accessories, or non-functional devices unless the user explicitly asked for them.

====User prompt:====
{{.Prompt}}

====Desired product(s):====
{{join .Products ", "}}

====Ad title:====
{{.Title}}

====Ad description:====
{{.Description}}
`

const summaryTmpl = `You are an assistant that helps summarize **used marketplace listings**.
You are NOT a product reviewer and you should never describe specifications, features, or advertisements.
Your only task is to summarize the **market situation** for the requested product(s).

Always respond in **English only**.
If you cannot create a detailed summary, fall back to:
"{{.Fallback}}"

The user asked for:
{{join .Products ", "}}

We found {{.ListingsCount}} relevant listings, with a median price of {{.MedianPrice}}.

Write a short, natural, and conversational response that:
- Does not list specific listings.
- Does not review the product or list technical specs.
- Comments on whether the median price seems fair, high, or low.
- Mentions the total number of potential listings ({{.PotentialCount}})
  and the remaining listings after filtering ({{.FilteredCount}}).

User's original request (may not be in English, but reply in English):
{{.Prompt}}

(Reference only, do NOT show to the user: Top {{len .Top}} listings:
{{range .Top}}- {{.Title}} ({{.Price}})
{{end}})
`

var funcs = template.FuncMap{"join": strings.Join}

var (
	parseRequestTemplate  = template.Must(template.New("parse_request").Funcs(funcs).Parse(parseRequestTmpl))
	expandQueriesTemplate = template.Must(template.New("expand_queries").Funcs(funcs).Parse(expandQueriesTmpl))
	classifyTemplate      = template.Must(template.New("classify").Funcs(funcs).Parse(classifyTmpl))
	scoreTemplate         = template.Must(template.New("score").Funcs(funcs).Parse(scoreTmpl))
	summaryTemplate       = template.Must(template.New("summary").Funcs(funcs).Parse(summaryTmpl))
)

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// Structured output schemas, one per call.
var (
	parseRequestSchema = &Schema{
		Name:        "user_request",
		Description: "Products the user is interested in and how many final listings they want to see.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"products": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "The products the user is interested in",
				},
				"max_products_count": map[string]any{
					"type":        "integer",
					"description": "The maximum number of products the user is interested in",
				},
				"include_configurations": map[string]any{
					"type":        "boolean",
					"description": "Whether to include configurations which include the desired product",
				},
			},
			"required": []string{"products"},
		},
	}

	expandQueriesSchema = &Schema{
		Name:        "search_queries",
		Description: "Marketplace search queries grouped by product.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"queries": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"product": map[string]any{"type": "string"},
							"search_queries": map[string]any{
								"type":  "array",
								"items": map[string]any{"type": "string"},
							},
						},
						"required": []string{"product", "search_queries"},
					},
				},
			},
			"required": []string{"queries"},
		},
	}

	classifySchema = &Schema{
		Name:        "filter_listings",
		Description: "IDs of the listings to keep.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"ids_to_keep": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "integer"},
				},
			},
			"required": []string{"ids_to_keep"},
		},
	}

	scoreSchema = &Schema{
		Name:        "listing_score",
		Description: "Relevance score for a listing.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score": map[string]any{
					"type":    "integer",
					"minimum": 0,
					"maximum": 10,
				},
			},
			"required": []string{"score"},
		},
	}
)
