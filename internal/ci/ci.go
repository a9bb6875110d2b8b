// Package ci detects the CI system a run happens in.
package ci

import (
	"fmt"
	"os"
)

// CI describes the CI build a run belongs to.
type CI struct {
	Provider string `json:"provider"`
	BuildURL string `json:"build_url,omitempty"`
	Repo     string `json:"repo,omitempty"`
	RefName  string `json:"ref_name,omitempty"`
	SHA      string `json:"sha,omitempty"`
}

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// provider is detected by the presence of Envar.
type provider struct {
	Name  string
	Envar string
	read  func(get func(string) string) CI
}

var providers = []provider{
	{Name: "GitHub", Envar: "GITHUB_RUN_ID", read: func(get func(string) string) CI {
		return CI{
			BuildURL: fmt.Sprintf("%s/%s/actions/runs/%s", get("GITHUB_SERVER_URL"), get("GITHUB_REPOSITORY"), get("GITHUB_RUN_ID")),
			Repo:     get("GITHUB_REPOSITORY"),
			RefName:  get("GITHUB_REF_NAME"),
			SHA:      get("GITHUB_SHA"),
		}
	}},
	{Name: "GitLab", Envar: "CI_PIPELINE_ID", read: func(get func(string) string) CI {
		return CI{
			BuildURL: get("CI_JOB_URL"),
			Repo:     get("CI_PROJECT_PATH"),
			RefName:  get("CI_COMMIT_REF_NAME"),
			SHA:      get("CI_COMMIT_SHA"),
		}
	}},
	{Name: "CircleCI", Envar: "CIRCLECI", read: func(get func(string) string) CI {
		return CI{
			BuildURL: get("CIRCLE_BUILD_URL"),
			Repo:     get("CIRCLE_PROJECT_REPONAME"),
			RefName:  get("CIRCLE_BRANCH"),
			SHA:      get("CIRCLE_SHA1"),
		}
	}},
	{Name: "Buildkite", Envar: "BUILDKITE", read: func(get func(string) string) CI {
		return CI{
			BuildURL: get("BUILDKITE_BUILD_URL"),
			Repo:     get("BUILDKITE_REPO"),
			RefName:  get("BUILDKITE_BRANCH"),
			SHA:      get("BUILDKITE_COMMIT"),
		}
	}},
	{Name: "Bitrise", Envar: "BITRISE_IO", read: func(get func(string) string) CI {
		return CI{
			BuildURL: get("BITRISE_BUILD_URL"),
			Repo:     get("GIT_REPOSITORY_URL"),
			RefName:  get("BITRISE_GIT_BRANCH"),
			SHA:      get("BITRISE_GIT_COMMIT"),
		}
	}},
	// Jenkins last, BUILD_NUMBER is set by other systems too.
	{Name: "Jenkins", Envar: "BUILD_NUMBER", read: func(get func(string) string) CI {
		return CI{
			BuildURL: get("BUILD_URL"),
			Repo:     get("GIT_URL"),
			RefName:  get("GIT_BRANCH"),
			SHA:      get("GIT_COMMIT"),
		}
	}},
}

// Detect returns the CI build of the current process, if any.
func Detect() (CI, bool) {
	return FromEnv(os.LookupEnv)
}

// FromEnv returns the CI build described by the variables lookup finds. The boolean is false outside of a
// known CI system.
func FromEnv(lookup LookupFunc) (CI, bool) {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	for _, p := range providers {
		if _, ok := lookup(p.Envar); !ok {
			continue
		}
		c := p.read(get)
		c.Provider = p.Name
		return c, true
	}
	return CI{}, false
}
