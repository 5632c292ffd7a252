package catalog

// Category names of the default catalog.
const (
	PageBuilders         = "Page builders"
	WebFrameworks        = "Web frameworks"
	JavaScriptFrameworks = "JavaScript frameworks"
	JavaScriptLibraries  = "JavaScript libraries"
	UIFrameworks         = "UI frameworks"
	FontScripts          = "Font scripts"
	CDN                  = "CDN"
	Performance          = "Performance"
	Analytics            = "Analytics"
	TagManagers          = "Tag managers"
	Advertising          = "Advertising"
	Security             = "Security"
	Miscellaneous        = "Miscellaneous"
)

// keywords lists the plain keywords of each default category.
// A keyword is recorded as itself, with a version suffix when one follows it.
var keywords = map[string][]string{
	PageBuilders:         {"divi", "wpbakery", "beaver-builder", "gutenberg", "wix", "squarespace", "webflow"},
	WebFrameworks:        {"laravel", "django", "rails", "next.js", "nuxt", "gatsby", "asp.net"},
	JavaScriptFrameworks: {"svelte", "ember", "backbone", "alpine.js", "preact"},
	JavaScriptLibraries:  {"jquery", "lodash", "gsap", "swiper", "slick", "moment.js", "underscore", "core-js"},
	UIFrameworks:         {"bootstrap", "tailwind", "bulma", "foundation", "materialize"},
	FontScripts:          {"font-awesome", "typekit"},
	CDN:                  {"cdnjs", "unpkg", "cloudfront", "fastly", "akamai"},
	Performance:          {"lazysizes", "wp-rocket", "autoptimize"},
	Analytics:            {"hotjar", "matomo", "plausible", "mixpanel", "clarity.ms"},
	TagManagers:          {},
	Advertising:          {"googlesyndication", "doubleclick", "adsbygoogle"},
	Security:             {"recaptcha", "hcaptcha"},
	Miscellaneous:        {"schema.org", "open graph"},
}

// categoryOrder is the report order of the default categories.
var categoryOrder = []string{
	PageBuilders,
	WebFrameworks,
	JavaScriptFrameworks,
	JavaScriptLibraries,
	UIFrameworks,
	FontScripts,
	CDN,
	Performance,
	Analytics,
	TagManagers,
	Advertising,
	Security,
	Miscellaneous,
}

// heuristics are the named detections applied after the keyword rules.
var heuristics = map[string][]Rule{
	PageBuilders: {
		Substring("wordpress", "WordPress"),
		Substring("elementor", "Elementor"),
	},
	WebFrameworks: {
		Substring("woocommerce", "WooCommerce"),
		URLContains("shopify", "Shopify"),
		Substring("/wp-content/", "WordPress"),
		Substring("/sites/default/", "Drupal"),
		Substring("magento", "Magento"),
	},
	JavaScriptFrameworks: {
		Substring("react", "React"),
		Substring("vue", "Vue.js"),
		Substring("angular", "Angular"),
	},
	FontScripts: {
		Substring("fonts.googleapis.com", "Google Fonts"),
	},
	CDN: {
		HeaderContains("Server", "cloudflare", "Cloudflare"),
		Substring("cdn.jsdelivr.net", "jsDelivr"),
		Substring("ajax.googleapis.com", "Google CDN"),
	},
	Performance: {
		HeaderPresent("cf-ray", "Cloudflare Rocket Loader"),
	},
	Analytics: {
		Substring("google-analytics.com", "Google Analytics").WithSuffix("ga4", "(GA4)"),
	},
	TagManagers: {
		Substring("googletagmanager.com", "Google Tag Manager"),
	},
	Advertising: {
		Substring("facebook.com/tr?", "Facebook Pixel"),
	},
}

// Default returns the built-in technology catalog.
// Each call returns a new Catalog; callers usually build it once at startup.
func Default() *Catalog {
	categories := make([]Category, 0, len(categoryOrder))
	for _, name := range categoryOrder {
		rules := make([]Rule, 0, len(keywords[name])+len(heuristics[name]))
		for _, keyword := range keywords[name] {
			rules = append(rules, Keyword(keyword))
		}
		rules = append(rules, heuristics[name]...)
		categories = append(categories, Category{Name: name, Rules: rules})
	}
	return MustNew(categories...)
}
