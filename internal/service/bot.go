package service

import "strings"

// botSignatures are matched as lowercase substrings of the user-agent. None of
// them may appear in a mainstream browser user-agent.
var botSignatures = []string{
	// search engines
	"googlebot", "bingbot", "slurp", "duckduckbot", "baiduspider",
	"yandexbot", "applebot", "petalbot", "sogou",
	// link previews
	"facebookexternalhit", "facebot", "twitterbot", "linkedinbot",
	"slackbot", "discordbot", "telegrambot", "whatsapp", "embedly",
	"pinterestbot", "redditbot",
	// SEO tools
	"ahrefsbot", "semrushbot", "mj12bot", "dotbot",
	// headless browsers and automation
	"headlesschrome", "phantomjs", "puppeteer", "playwright", "selenium",
	"webdriver", "lighthouse",
	// HTTP clients
	"curl/", "wget/", "python-requests", "python-urllib", "go-http-client",
	"java/", "okhttp", "axios/", "node-fetch", "libwww-perl", "httpclient",
	// generic
	"bot", "crawler", "spider", "scraper",
}

// IsBot reports whether userAgent looks like a crawler or automation client.
// An empty user-agent is treated as a bot since every browser sends one.
func IsBot(userAgent string) bool {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return true
	}

	for _, signature := range botSignatures {
		if strings.Contains(ua, signature) {
			return true
		}
	}
	return false
}
