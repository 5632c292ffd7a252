// Package main provides the entry point for the stackscan CLI.
//
// stackscan crawls a website from a seed URL and reports the technologies
// each page uses: JavaScript frameworks, analytics, CDNs, page builders
// and more.
//
// Usage:
//
//	stackscan scan <url>
//	stackscan scan -p 20 -o website_analysis.md example.com
//
// See --help for all available options.
package main

func main() {
	Execute()
}
