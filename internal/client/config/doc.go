// Package config loads runtime configuration for the blog CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: BLOG_SERVER_URL, BLOG_REQUEST_TIMEOUT, BLOG_STORE,
//     BLOG_LOG_LEVEL, BLOG_LOG_FORMAT, optionally seeded from a .env file.
//  3. Optional JSON file selected by -c/-config or $BLOG_CONFIG.
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
//	{
//	  "server_url": "http://localhost:8000/api",
//	  "request_timeout": "30s",
//	  "store": "blog.db",
//	  "log_level": "info",
//	  "log_format": "console"
//	}
package config
