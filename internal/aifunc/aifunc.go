// Package aifunc holds the prompt templates the agents ask the model to
// "execute". Each Func renders a pseudo-function definition; the model is
// instructed to print only what that function would return.
package aifunc

import (
	"sort"
	"strings"
)

// Func renders the function definition the model should evaluate for input.
type Func func(input string) string

var registry = map[string]Func{
	"convert_user_input_to_goal":    ConvertUserInputToGoal,
	"print_project_scope":           PrintProjectScope,
	"print_site_urls":               PrintSiteURLs,
	"print_backend_webserver_code":  PrintBackendWebserverCode,
	"print_improved_webserver_code": PrintImprovedWebserverCode,
	"print_fixed_code":              PrintFixedCode,
	"print_rest_api_endpoints":      PrintRESTAPIEndpoints,
}

// Lookup returns the registered function with the given snake_case name.
func Lookup(name string) (Func, bool) {
	fn, ok := registry[strings.TrimSpace(name)]
	return fn, ok
}

// Names lists registered function names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func render(signature string, doc ...string) string {
	lines := make([]string, 0, len(doc)+2)
	lines = append(lines, signature)
	for _, d := range doc {
		lines = append(lines, "/// "+d)
	}
	lines = append(lines, "/// (Function body is evaluated by the model.)")
	return strings.Join(lines, "\n")
}

// ConvertUserInputToGoal turns a free-form user request into a concise goal.
func ConvertUserInputToGoal(_ string) string {
	return render(
		"fn convert_user_input_to_goal(_user_request: &str)",
		"Input: user request",
		"Function: Converts user request into a short summarized goal",
		"Example input: I need a website that lets users login and logout. It needs to look fancy and accept payments.",
		"Example output: build a website that handles users logging in and logging out and accepts payments",
		"Output: the summarized goal as a single sentence, nothing else",
	)
}

// PrintProjectScope decides which capabilities the described project needs.
// The model output decodes into domain.ProjectScope.
func PrintProjectScope(_ string) string {
	return render(
		"fn print_project_scope(_project_description: &str)",
		"Input: Takes in a user request describing the website to build",
		"Function: Converts user request into JSON response of information items required for a website build.",
		"Important: At least one of the items must be true",
		"Example input: build a website that handles users logging in and logging out and accepts payments",
		`Example output: {"is_crud_required": true, "is_user_login_and_logout": true, "is_external_urls_required": true}`,
		"Output: Prints an object response in the above format",
		"Output: Only the JSON object, no markdown",
	)
}

// PrintSiteURLs lists public API endpoints the project will call.
// The model output decodes into []string.
func PrintSiteURLs(_ string) string {
	return render(
		"fn print_site_urls(_project_description: &str)",
		"Input: Takes in a project description of a website build",
		"Function: Outputs a list of external public API endpoints that should be used in the building of the website",
		"Important: Only selects url endpoint(s) which do not require any API keys at all",
		"Example input: website that fetches and plots crypto prices",
		`Example output: ["https://api.binance.com/api/v3/exchangeInfo", "https://api.binance.com/api/v3/klines?symbol=BTCUSDT&interval=1d"]`,
		"Output: Prints a JSON list of urls and nothing else",
	)
}

// PrintBackendWebserverCode writes a first version of the backend from the
// project description and code template.
func PrintBackendWebserverCode(_ string) string {
	return render(
		"fn print_backend_webserver_code(_project_description_and_template: &str)",
		"Input: Takes in a PROJECT_DESCRIPTION and CODE_TEMPLATE for a website backend build",
		"Function: Takes an existing set of code marked as CODE_TEMPLATE and updates or re-writes it to work for the purpose in the PROJECT_DESCRIPTION",
		"Important: The backend code is ONLY an example. If the Project Description requires it, make as many changes as you like.",
		"Important: You do not need to follow the backend code exactly. Write functions that make sense for the users request if required.",
		"Important: Only print the backend code. No commentary.",
		"Output: Print ONLY the code, nothing else. This function ONLY prints code.",
	)
}

// PrintImprovedWebserverCode reviews the generated backend and fixes gaps.
func PrintImprovedWebserverCode(_ string) string {
	return render(
		"fn print_improved_webserver_code(_project_description_and_template: &str)",
		"Input: Takes in a PROJECT_DESCRIPTION and CODE_TEMPLATE for a website backend build",
		"Function: Performs the following tasks:",
		"  1. Removes any bugs in the code and adds minor additional functionality",
		"  2. Makes sure everything requested in the project description from a backend standpoint was followed. If not, add the feature.",
		"  3. ONLY writes the code. No commentary.",
		"Important: Only use the dependencies already present in the template.",
		"Output: Print ONLY the code, nothing else. This function ONLY prints code.",
	)
}

// PrintFixedCode fixes the bugs described alongside the code.
func PrintFixedCode(_ string) string {
	return render(
		"fn print_fixed_code(_broken_code_with_bugs: &str)",
		"Input: Takes in code with bugs and the bugs listed as BROKEN_CODE and ERROR_BUGS",
		"Function: Removes bugs from the code",
		"Important: Only prints out the new and improved code. No commentary or anything else",
		"Output: Print ONLY the code, nothing else. This function ONLY prints code.",
	)
}

// PrintRESTAPIEndpoints extracts the REST endpoints from backend code.
// The model output decodes into []domain.RouteObject.
func PrintRESTAPIEndpoints(_ string) string {
	return render(
		"fn print_rest_api_endpoints(_code_input: &str)",
		"Input: Takes in backend webserver code",
		"Function: Prints out the JSON schema for url endpoints and their respective types",
		"Logic: Script analyses all code and can categorize into the following object keys:",
		`  "route": represents the url path of the endpoint`,
		`  "is_route_dynamic": if a route has dynamic data, this is "true", otherwise "false"`,
		`  "method": the type of request (get, post, put, delete, ...)`,
		`  "request_body": the type of body expected to be sent with the request`,
		`  "response": the type of response expected from the endpoint`,
		`Example output: [{"route": "/item/{id}", "is_route_dynamic": "true", "method": "get", "request_body": "None", "response": {"id": "number", "name": "string"}}]`,
		"Important: Only print the JSON list of endpoints. No commentary.",
	)
}
