package searchstore

// DefaultIndexTemplate returns the mandatory mapping and settings applied
// to every `data-*` index (spec.md §6's "Index template"): the fixed
// top-level fields every stored record carries, plus dynamic templates
// that route a parsed field to a concrete Elasticsearch type by its tag
// suffix (`.t`, `.ki`, `.ks`, `.n`, `.d`, `.b`, `.gp`, `.gs`).
func DefaultIndexTemplate() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"number_of_replicas": 0,
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"id":          map[string]any{"type": "keyword"},
				"version":     map[string]any{"type": "date", "format": "epoch_millis"},
				"next":        map[string]any{"type": "date", "format": "epoch_millis"},
				"versions":    map[string]any{"type": "date_range", "format": "epoch_millis"},
				"data":        map[string]any{"type": "object", "enabled": false},
				"data_types":  map[string]any{"type": "keyword"},
				"parsed_types": map[string]any{"type": "keyword"},
				"all_text":    map[string]any{"type": "text"},
				"all_points":  map[string]any{"type": "geo_point"},
				"all_shapes":  map[string]any{"type": "geo_shape"},
			},
			"dynamic_templates": []any{
				dynamicTemplate("text_fields", "*.t", map[string]any{"type": "text"}),
				dynamicTemplate("keyword_lower_fields", "*.ki", map[string]any{
					"type": "keyword", "normalizer": "lowercase", "ignore_above": 256, "copy_to": "all_text",
				}),
				dynamicTemplate("keyword_fields", "*.ks", map[string]any{
					"type": "keyword", "ignore_above": 256, "copy_to": "all_text",
				}),
				dynamicTemplate("number_fields", "*.n", map[string]any{"type": "double"}),
				dynamicTemplate("date_fields", "*.d", map[string]any{"type": "date", "format": "epoch_millis"}),
				dynamicTemplate("boolean_fields", "*.b", map[string]any{"type": "boolean"}),
				dynamicTemplate("geo_point_fields", "*.gp", map[string]any{"type": "geo_point", "copy_to": "all_points"}),
				dynamicTemplate("geo_shape_fields", "*.gs", map[string]any{"type": "geo_shape", "copy_to": "all_shapes"}),
			},
		},
	}
}

func dynamicTemplate(name, pathMatch string, mapping map[string]any) map[string]any {
	return map[string]any{
		name: map[string]any{
			"path_match": pathMatch,
			"mapping":    mapping,
		},
	}
}
