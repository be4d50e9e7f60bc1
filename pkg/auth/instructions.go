package auth

import (
	"fmt"
	"strings"
)

// ShowCookieExtractionGuide prints the steps for lifting the session
// cookies out of a logged-in browser.
func ShowCookieExtractionGuide() {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("INSTAGRAM COOKIE EXTRACTION GUIDE")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()

	fmt.Println("The extractor authenticates with your Instagram session cookies.")
	fmt.Println("To copy them out of your browser:")
	fmt.Println()

	fmt.Println("1. Open https://www.instagram.com and log in.")
	fmt.Println()

	fmt.Println("2. Open Developer Tools (F12, or Cmd+Option+I on macOS).")
	fmt.Println()

	fmt.Println("3. Go to the Application tab (Chrome) or Storage tab (Firefox),")
	fmt.Println("   expand Cookies and select https://www.instagram.com.")
	fmt.Println()

	fmt.Println("4. Copy these two values:")
	fmt.Println("   - sessionid: a long string containing %3A escapes")
	fmt.Println("   - csrftoken: a 32-character token")
	fmt.Println()

	fmt.Println("Tips:")
	fmt.Println("   - Copy the entire value, without quotes or semicolons.")
	fmt.Println("   - The cookies expire; refresh them when extraction starts")
	fmt.Println("     failing with access_denied.")
	fmt.Println("   - Prefer a secondary account over your main one.")
	fmt.Println()

	fmt.Println("These cookies grant full account access. Never share them; this")
	fmt.Println("tool stores them encrypted.")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()
}

// ShowQuickExtractGuide prints the condensed reminder.
func ShowQuickExtractGuide() {
	fmt.Println("\nQuick guide: F12 > Application/Storage > Cookies > instagram.com")
	fmt.Println("   Need: sessionid=... and csrftoken=...")
}
