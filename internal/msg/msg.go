package msg

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

// CredentialsMessage explains where each vendor's credentials can be obtained.
const CredentialsMessage = `Credentials are stored per device farm vendor. Find yours here:
  - BrowserStack: https://www.browserstack.com/accounts/settings
  - Sauce Labs:   https://app.saucelabs.com/user-settings
  - LambdaTest:   https://accounts.lambdatest.com/security
  - AWS:          an IAM access key with Device Farm permissions`

// NoCloudProviders is a hint shown when no device farm could be reached.
const NoCloudProviders = `No cloud device farm is configured. Run 'mobilectl configure' or export the vendor
credentials (e.g. BROWSERSTACK_USERNAME/BROWSERSTACK_ACCESS_KEY) to enable one.`

// LogNoCloudProviders prints out a formatted and color coded version of NoCloudProviders.
func LogNoCloudProviders() {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Printf("\n%s: %s\n\n", yellow("NOTE"), NoCloudProviders)
}

// LogRunSuccess prints out a run success summary statement.
func LogRunSuccess() {
	log.Info().Msg("┌────────────────────────┐")
	log.Info().Msg(" All devices have passed! ")
	log.Info().Msg("└────────────────────────┘")
}

// LogRunFailure prints out a run failure summary statement.
func LogRunFailure(failed, total int) {
	log.Error().Msgf("%d of %d devices have failed.", failed, total)
}
