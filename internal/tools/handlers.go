package tools

import (
	"context"
	"fmt"

	"github.com/brilliance/launcher-gateway/internal/host"
	"github.com/brilliance/launcher-gateway/internal/logger"
)

// NewHostRegistry builds the registry with the full default catalog wired
// to the given host capability surfaces.
func NewHostRegistry(log *logger.Logger, h host.Host) *Registry {
	return NewRegistry(log, DefaultDefinitions(), buildHandlers(h))
}

func buildHandlers(h host.Host) map[string]Handler {
	return map[string]Handler{
		"listSections": func(ctx context.Context, args map[string]any) (any, error) {
			sections, err := h.Content.ListSections(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"sections": sections, "count": len(sections)}, nil
		},
		"getSectionDetails": func(ctx context.Context, args map[string]any) (any, error) {
			handle, err := requireString(args, "section")
			if err != nil {
				return nil, err
			}
			section, err := h.Content.GetSection(ctx, handle)
			if err != nil {
				return nil, err
			}
			return map[string]any{"section": section}, nil
		},
		"searchEntries": func(ctx context.Context, args map[string]any) (any, error) {
			entries, err := h.Content.SearchEntries(ctx, stringArg(args, "query"), stringArg(args, "section"), intArg(args, "limit"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"entries": entries, "count": len(entries)}, nil
		},
		"getFieldDetails": func(ctx context.Context, args map[string]any) (any, error) {
			handle, err := requireString(args, "field")
			if err != nil {
				return nil, err
			}
			field, err := h.Content.GetField(ctx, handle)
			if err != nil {
				return nil, err
			}
			return map[string]any{"field": field}, nil
		},
		"createDraftEntry": func(ctx context.Context, args map[string]any) (any, error) {
			section, err := requireString(args, "section")
			if err != nil {
				return nil, err
			}
			title, err := requireString(args, "title")
			if err != nil {
				return nil, err
			}
			entry, err := h.Content.CreateDraftEntry(ctx, section, stringArg(args, "type"), title, mapArg(args, "fields"))
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"message": fmt.Sprintf("Draft entry %q created.", entry.Title),
				"entry":   entry,
			}, nil
		},
		"listFields": func(ctx context.Context, args map[string]any) (any, error) {
			fields, err := h.Content.ListFields(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"fields": fields, "count": len(fields)}, nil
		},
		"listCategoryGroups": func(ctx context.Context, args map[string]any) (any, error) {
			groups, err := h.Content.ListCategoryGroups(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"groups": groups, "count": len(groups)}, nil
		},
		"getCategoryGroupDetails": func(ctx context.Context, args map[string]any) (any, error) {
			handle, err := requireString(args, "group")
			if err != nil {
				return nil, err
			}
			group, err := h.Content.GetCategoryGroup(ctx, handle)
			if err != nil {
				return nil, err
			}
			return map[string]any{"group": group}, nil
		},
		"searchCategories": func(ctx context.Context, args map[string]any) (any, error) {
			categories, err := h.Content.SearchCategories(ctx, stringArg(args, "query"), stringArg(args, "group"), intArg(args, "limit"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"categories": categories, "count": len(categories)}, nil
		},
		"listAssetVolumes": func(ctx context.Context, args map[string]any) (any, error) {
			volumes, err := h.Content.ListAssetVolumes(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"volumes": volumes, "count": len(volumes)}, nil
		},
		"searchAssets": func(ctx context.Context, args map[string]any) (any, error) {
			assets, err := h.Content.SearchAssets(ctx, stringArg(args, "query"), stringArg(args, "volume"), intArg(args, "limit"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"assets": assets, "count": len(assets)}, nil
		},
		"listGlobals": func(ctx context.Context, args map[string]any) (any, error) {
			globals, err := h.Content.ListGlobalSets(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"globals": globals, "count": len(globals)}, nil
		},
		"getGlobalDetails": func(ctx context.Context, args map[string]any) (any, error) {
			handle, err := requireString(args, "global")
			if err != nil {
				return nil, err
			}
			global, err := h.Content.GetGlobalSet(ctx, handle)
			if err != nil {
				return nil, err
			}
			return map[string]any{"global": global}, nil
		},
		"searchGlobals": func(ctx context.Context, args map[string]any) (any, error) {
			query, err := requireString(args, "query")
			if err != nil {
				return nil, err
			}
			globals, err := h.Content.SearchGlobalSets(ctx, query)
			if err != nil {
				return nil, err
			}
			return map[string]any{"globals": globals, "count": len(globals)}, nil
		},
		"listUtilities": func(ctx context.Context, args map[string]any) (any, error) {
			utilities, err := h.System.Utilities(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"utilities": utilities}, nil
		},
		"clearCaches": func(ctx context.Context, args map[string]any) (any, error) {
			if _, err := h.Cache.ClearCaches(ctx); err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"message": "All caches have been cleared successfully.",
			}, nil
		},
		"rebuildAssetIndexes": func(ctx context.Context, args map[string]any) (any, error) {
			n, err := h.Content.RebuildAssetIndexes(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"message": fmt.Sprintf("Asset indexes rebuilt; %d assets updated.", n),
				"updated": n,
			}, nil
		},
		"getQueueStatus": func(ctx context.Context, args map[string]any) (any, error) {
			status, err := h.Queue.Status(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"queue": status}, nil
		},
		"runQueueJobs": func(ctx context.Context, args map[string]any) (any, error) {
			ran, err := h.Queue.Run(ctx, intArg(args, "limit"))
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"message": fmt.Sprintf("%d queue jobs released.", ran),
				"ran":     ran,
			}, nil
		},
		"getSystemInfo": func(ctx context.Context, args map[string]any) (any, error) {
			info, err := h.System.Info(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"system": info}, nil
		},
		"getCommerceStatus": func(ctx context.Context, args map[string]any) (any, error) {
			return h.System.CommerceStatus(ctx)
		},
		"listFieldTypes": func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"fieldTypes": fieldTypes}, nil
		},
		"getSectionTypeInfo": func(ctx context.Context, args map[string]any) (any, error) {
			if t := stringArg(args, "type"); t != "" {
				info, ok := sectionTypeInfo[t]
				if !ok {
					return nil, fmt.Errorf("Unknown section type: %s", t)
				}
				return map[string]any{"sectionType": info}, nil
			}
			all := make([]map[string]any, 0, len(sectionTypeInfo))
			for _, t := range []string{"channel", "structure", "single"} {
				all = append(all, sectionTypeInfo[t])
			}
			return map[string]any{"sectionTypes": all}, nil
		},
		"createSection": func(ctx context.Context, args map[string]any) (any, error) {
			name, err := requireString(args, "name")
			if err != nil {
				return nil, err
			}
			handle, err := requireString(args, "handle")
			if err != nil {
				return nil, err
			}
			section, err := h.Content.CreateSection(ctx, name, handle, stringArg(args, "type"))
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"message": fmt.Sprintf("Section %q created.", section.Name),
				"section": section,
			}, nil
		},
		"createEntryType": func(ctx context.Context, args map[string]any) (any, error) {
			section, err := requireString(args, "section")
			if err != nil {
				return nil, err
			}
			name, err := requireString(args, "name")
			if err != nil {
				return nil, err
			}
			handle, err := requireString(args, "handle")
			if err != nil {
				return nil, err
			}
			entryType, err := h.Content.CreateEntryType(ctx, section, name, handle)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success":   true,
				"message":   fmt.Sprintf("Entry type %q created.", entryType.Name),
				"entryType": entryType,
			}, nil
		},
		"createField": func(ctx context.Context, args map[string]any) (any, error) {
			name, err := requireString(args, "name")
			if err != nil {
				return nil, err
			}
			handle, err := requireString(args, "handle")
			if err != nil {
				return nil, err
			}
			field, err := h.Content.CreateField(ctx, name, handle, stringArg(args, "type"), stringArg(args, "instructions"))
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"message": fmt.Sprintf("Field %q created.", field.Name),
				"field":   field,
			}, nil
		},
		"addFieldToEntryType": func(ctx context.Context, args map[string]any) (any, error) {
			entryType, err := requireString(args, "entryType")
			if err != nil {
				return nil, err
			}
			field, err := requireString(args, "field")
			if err != nil {
				return nil, err
			}
			if err := h.Content.AddFieldToEntryType(ctx, entryType, field, boolArg(args, "required")); err != nil {
				return nil, err
			}
			return map[string]any{
				"success": true,
				"message": fmt.Sprintf("Field %q added to entry type %q.", field, entryType),
			}, nil
		},
	}
}
