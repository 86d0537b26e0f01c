package tools

// DefaultDefinitions is the full tool catalog exposed to providers. Order
// is stable; it is the order tools are presented in the function-calling
// prompt.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name:        "listSections",
			Description: "List all content sections with their handles and types.",
		},
		{
			Name:        "getSectionDetails",
			Description: "Get a section's entry types and field layouts.",
			Params: map[string]Param{
				"section": {Type: "string", Description: "Section handle", Required: true},
			},
		},
		{
			Name:        "searchEntries",
			Description: "Search entries by title or slug, optionally within one section.",
			Params: map[string]Param{
				"query":   {Type: "string", Description: "Search text"},
				"section": {Type: "string", Description: "Section handle to search in"},
				"limit":   {Type: "number", Description: "Maximum results (default 20)"},
			},
		},
		{
			Name:        "getFieldDetails",
			Description: "Get a field's type, instructions and settings.",
			Params: map[string]Param{
				"field": {Type: "string", Description: "Field handle", Required: true},
			},
		},
		{
			Name:        "createDraftEntry",
			Description: "Create a draft entry in a section. Drafts are never published automatically.",
			Params: map[string]Param{
				"section": {Type: "string", Description: "Section handle", Required: true},
				"type":    {Type: "string", Description: "Entry type handle (defaults to the section's first type)"},
				"title":   {Type: "string", Description: "Entry title", Required: true},
				"fields":  {Type: "object", Description: "Field values keyed by field handle"},
			},
		},
		{
			Name:        "listFields",
			Description: "List all custom fields.",
		},
		{
			Name:        "listCategoryGroups",
			Description: "List all category groups.",
		},
		{
			Name:        "getCategoryGroupDetails",
			Description: "Get a category group and its categories.",
			Params: map[string]Param{
				"group": {Type: "string", Description: "Category group handle", Required: true},
			},
		},
		{
			Name:        "searchCategories",
			Description: "Search categories by title or slug.",
			Params: map[string]Param{
				"query": {Type: "string", Description: "Search text"},
				"group": {Type: "string", Description: "Category group handle to search in"},
				"limit": {Type: "number", Description: "Maximum results (default 20)"},
			},
		},
		{
			Name:        "listAssetVolumes",
			Description: "List all asset volumes.",
		},
		{
			Name:        "searchAssets",
			Description: "Search assets by filename or title.",
			Params: map[string]Param{
				"query":  {Type: "string", Description: "Search text"},
				"volume": {Type: "string", Description: "Asset volume handle to search in"},
				"limit":  {Type: "number", Description: "Maximum results (default 20)"},
			},
		},
		{
			Name:        "listGlobals",
			Description: "List all global sets.",
		},
		{
			Name:        "getGlobalDetails",
			Description: "Get a global set and its content.",
			Params: map[string]Param{
				"global": {Type: "string", Description: "Global set handle", Required: true},
			},
		},
		{
			Name:        "searchGlobals",
			Description: "Search global sets by name or handle.",
			Params: map[string]Param{
				"query": {Type: "string", Description: "Search text", Required: true},
			},
		},
		{
			Name:        "listUtilities",
			Description: "List available admin utilities.",
		},
		{
			Name:        "clearCaches",
			Description: "Clear all host caches.",
		},
		{
			Name:        "rebuildAssetIndexes",
			Description: "Rebuild the searchable asset indexes.",
		},
		{
			Name:        "getQueueStatus",
			Description: "Get background job queue counts.",
		},
		{
			Name:        "runQueueJobs",
			Description: "Release pending queue jobs.",
			Params: map[string]Param{
				"limit": {Type: "number", Description: "Maximum jobs to run (default 10)"},
			},
		},
		{
			Name:        "getSystemInfo",
			Description: "Get system and runtime information.",
		},
		{
			Name:        "getCommerceStatus",
			Description: "Check whether commerce is installed and summarize it.",
		},
		{
			Name:        "listFieldTypes",
			Description: "List the field types available when creating fields.",
		},
		{
			Name:        "getSectionTypeInfo",
			Description: "Explain the available section types and when to use each.",
			Params: map[string]Param{
				"type": {Type: "string", Description: "Section type to describe (channel, structure, single)"},
			},
		},
		{
			Name:        "createSection",
			Description: "Create a new content section.",
			Params: map[string]Param{
				"name":   {Type: "string", Description: "Display name", Required: true},
				"handle": {Type: "string", Description: "Unique handle", Required: true},
				"type":   {Type: "string", Description: "Section type: channel, structure or single (default channel)"},
			},
		},
		{
			Name:        "createEntryType",
			Description: "Create an entry type inside a section.",
			Params: map[string]Param{
				"section": {Type: "string", Description: "Section handle", Required: true},
				"name":    {Type: "string", Description: "Display name", Required: true},
				"handle":  {Type: "string", Description: "Unique handle", Required: true},
			},
		},
		{
			Name:        "createField",
			Description: "Create a custom field.",
			Params: map[string]Param{
				"name":         {Type: "string", Description: "Display name", Required: true},
				"handle":       {Type: "string", Description: "Unique handle", Required: true},
				"type":         {Type: "string", Description: "Field type (default plainText)"},
				"instructions": {Type: "string", Description: "Author-facing instructions"},
			},
		},
		{
			Name:        "addFieldToEntryType",
			Description: "Attach an existing field to an entry type's layout.",
			Params: map[string]Param{
				"entryType": {Type: "string", Description: "Entry type handle", Required: true},
				"field":     {Type: "string", Description: "Field handle", Required: true},
				"required":  {Type: "boolean", Description: "Whether authors must fill the field"},
			},
		},
	}
}

// fieldTypes backs the listFieldTypes tool.
var fieldTypes = []map[string]any{
	{"type": "plainText", "name": "Plain Text", "description": "Single- or multi-line text"},
	{"type": "richText", "name": "Rich Text", "description": "Formatted HTML content"},
	{"type": "number", "name": "Number", "description": "Integer or decimal values"},
	{"type": "date", "name": "Date", "description": "Date and time values"},
	{"type": "lightswitch", "name": "Lightswitch", "description": "On/off toggle"},
	{"type": "dropdown", "name": "Dropdown", "description": "Single choice from a fixed list"},
	{"type": "entries", "name": "Entries", "description": "Relations to other entries"},
	{"type": "categories", "name": "Categories", "description": "Relations to categories"},
	{"type": "assets", "name": "Assets", "description": "Relations to uploaded assets"},
	{"type": "url", "name": "URL", "description": "Validated link field"},
}

// sectionTypeInfo backs the getSectionTypeInfo tool.
var sectionTypeInfo = map[string]map[string]any{
	"channel": {
		"type":        "channel",
		"name":        "Channel",
		"description": "A stream of similar entries, like blog posts or news items.",
		"bestFor":     "Repeating content without a fixed hierarchy.",
	},
	"structure": {
		"type":        "structure",
		"name":        "Structure",
		"description": "Hierarchical entries with a defined order, like documentation pages.",
		"bestFor":     "Content whose position and nesting matter.",
	},
	"single": {
		"type":        "single",
		"name":        "Single",
		"description": "Exactly one entry, like a homepage or an about page.",
		"bestFor":     "One-off pages with their own field layout.",
	},
}
