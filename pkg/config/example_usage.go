package config

// Example usage of the configuration system:
//
// 1. Load configuration with all sources:
//
//     config, err := config.Load("", nil)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 2. Load with a custom config file:
//
//     config, err := config.Load("/path/to/config.yaml", nil)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 3. Load with command line flags:
//
//     flags := map[string]interface{}{
//         "session-id":          "abc123",
//         "output":              "./extractions",
//         "concurrent-sessions": 5,
//         "max-posts":           100,
//         "log-level":           "debug",
//     }
//     config, err := config.Load("", flags)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 4. Programmatic configuration:
//
//     config := config.DefaultConfig()
//     config.Instagram.SessionID = "your-session-id"
//     config.Proxy.Entries = []string{"proxy1.example.com:8080"}
//     config.Scrape.MaxPosts = 100
//
//     if err := config.Validate(); err != nil {
//         log.Fatal(err)
//     }
//
// 5. Save configuration to file:
//
//     if err := config.Save(".igextract.yaml"); err != nil {
//         log.Fatal(err)
//     }
//
// 6. Environment variables:
//
//     export IGEXTRACT_SESSION_ID="your-session-id"
//     export IGEXTRACT_CSRF_TOKEN="your-csrf-token"
//     export IGEXTRACT_OUTPUT_DIR="./extractions"
//     export IGEXTRACT_REQUESTS_PER_HOUR="40"
//     export IGEXTRACT_PROXIES="p1.example.com:8080,p2.example.com:8080"
//     export IGEXTRACT_CONCURRENT_SESSIONS="3"
//     export IGEXTRACT_LOG_LEVEL="debug"
//
// 7. Feeding the engine from configuration:
//
//     opts := session.Options{
//         Credentials: session.Credentials{
//             SessionID: config.Instagram.SessionID,
//             CSRFToken: config.Instagram.CSRFToken,
//             UserAgent: config.Instagram.UserAgent,
//         },
//         RateLimit: session.RateLimit{
//             MaxRequests: config.RateLimit.RequestsPerHour,
//             Window:      time.Hour,
//             MinDelay:    config.RateLimit.MinDelay.Std(),
//             MaxDelay:    config.RateLimit.MaxDelay.Std(),
//         },
//         Timeout: config.Fetch.Timeout.Std(),
//     }
