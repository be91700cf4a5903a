package analyzer

import (
	"sort"
	"strings"
)

// configFiles lists every dependency descriptor and build config the
// analyzer records, in the priority order used for language detection.
var configFiles = []string{
	"go.mod",
	"go.sum",
	"Cargo.toml",
	"Cargo.lock",
	"package.json",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"pyproject.toml",
	"requirements.txt",
	"setup.py",
	"setup.cfg",
	"Pipfile",
	"Pipfile.lock",
	"pom.xml",
	"build.gradle",
	"build.gradle.kts",
	"Gemfile",
	"Gemfile.lock",
	"composer.json",
	"composer.lock",
	"Makefile",
	"CMakeLists.txt",
	"tsconfig.json",
	"vite.config.js",
	"vite.config.ts",
	"webpack.config.js",
	"next.config.js",
	"nuxt.config.js",
	"angular.json",
	".dockerignore",
}

// languageByManifest maps the manifests that decide a language. Only
// these participate in priority detection; lockfiles and tool configs
// are recorded but never decide.
var languageByManifest = []struct {
	manifest string
	language string
}{
	{"go.mod", "go"},
	{"Cargo.toml", "rust"},
	{"package.json", "javascript"},
	{"pyproject.toml", "python"},
	{"requirements.txt", "python"},
	{"setup.py", "python"},
	{"Pipfile", "python"},
	{"pom.xml", "java"},
	{"build.gradle", "java"},
	{"build.gradle.kts", "java"},
	{"Gemfile", "ruby"},
	{"composer.json", "php"},
	{"Makefile", "c"},
	{"CMakeLists.txt", "c"},
}

var languageByExtension = map[string]string{
	".go":   "go",
	".rs":   "rust",
	".py":   "python",
	".js":   "javascript",
	".ts":   "javascript",
	".jsx":  "javascript",
	".tsx":  "javascript",
	".java": "java",
	".rb":   "ruby",
	".php":  "php",
	".c":    "c",
	".cpp":  "c++",
	".cs":   "c#",
}

// detect decides language and framework. Manifests take priority over
// source extensions; the first manifest in the fixed order wins and is
// recorded as the decision.
func detect(pc *ProjectContext) (language, framework, decidedBy string) {
	for _, rule := range languageByManifest {
		content, ok := pc.ManifestContents[rule.manifest]
		if !ok {
			// Manifest may be present but unreadable/oversized; it
			// still decides the language, just not the framework.
			if !containsManifest(pc.Manifests, rule.manifest) {
				continue
			}
		}
		return rule.language, detectFramework(rule.language, rule.manifest, content), rule.manifest
	}

	// No manifest: fall back to the dominant source extension, with the
	// extension name as tie-break so the result is deterministic.
	type extCount struct {
		ext   string
		count int
	}
	var counts []extCount
	for ext, n := range pc.Extensions {
		if _, known := languageByExtension[ext]; known {
			counts = append(counts, extCount{ext, n})
		}
	}
	if len(counts) == 0 {
		return "unknown", "", "extensions"
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].ext < counts[j].ext
	})
	return languageByExtension[counts[0].ext], "", "extensions"
}

func containsManifest(manifests []string, name string) bool {
	for _, m := range manifests {
		if m == name {
			return true
		}
	}
	return false
}

// frameworkMarkers maps a language to ordered (marker substring,
// framework) pairs checked against the deciding manifest's content.
// Meta-frameworks come before the libraries they wrap.
var frameworkMarkers = map[string][]struct {
	marker    string
	framework string
}{
	"javascript": {
		{`"next"`, "next"},
		{`"nuxt"`, "nuxt"},
		{`"@angular/core"`, "angular"},
		{`"svelte"`, "svelte"},
		{`"vue"`, "vue"},
		{`"@nestjs/core"`, "nestjs"},
		{`"react"`, "react"},
		{`"fastify"`, "fastify"},
		{`"express"`, "express"},
	},
	"python": {
		{"django", "django"},
		{"fastapi", "fastapi"},
		{"flask", "flask"},
	},
	"ruby": {
		{"rails", "rails"},
	},
	"php": {
		{"laravel/framework", "laravel"},
	},
	"java": {
		{"spring-boot", "spring-boot"},
	},
}

func detectFramework(language, manifest, content string) string {
	if content == "" {
		return ""
	}
	lower := strings.ToLower(content)
	for _, m := range frameworkMarkers[language] {
		if strings.Contains(lower, strings.ToLower(m.marker)) {
			return m.framework
		}
	}
	return ""
}
