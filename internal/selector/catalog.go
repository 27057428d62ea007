package selector

// Candidate lists per UI role. Structural selectors for the current markup
// come first; generic text and attribute matches last, since they risk hitting
// unrelated controls.

var LoggedInIndicators = NewCandidates("logged-in indicator",
	ByCSS(`a[href*="/profile"]`),
	ByCSS(`a[href*="/account"]`),
	ByText("button", "Log out"),
	ByText("button", "Sign out"),
	ByTestID("profile"),
	ByCSS(".user-menu"),
	ByCSS(".account-menu"),
)

var LoginAffordance = NewCandidates("login link",
	ByCSS(`a[href*="log-in"]`),
	ByCSS(`a[href*="login"]`),
	ByText("a", "Log in"),
	ByText("button", "Log in"),
	ByText("a", "Sign in"),
)

var EmailInput = NewCandidates("email input",
	ByCSS(`input[type="email"]`),
	ByCSS(`input[name="email"]`),
	ByAttribute("input", "id", "email"),
	ByAttribute("input", "placeholder", "email"),
	ByAttribute("input", "aria-label", "email"),
	ByCSS("#email"),
	ByCSS(".email-input"),
)

var PasswordStep = NewCandidates("continue with password",
	ByRole("button", "Sign in with my password"),
	ByText("button", "Sign in with my password"),
	ByText("button", "Use password"),
	ByText("button", "Continue with password"),
)

var PasswordInput = NewCandidates("password input",
	ByCSS(`input[type="password"]`),
	ByCSS(`input[name="password"]`),
	ByAttribute("input", "name", "password"),
	ByAttribute("input", "id", "password"),
	ByAttribute("input", "placeholder", "password"),
	ByAttribute("input", "aria-label", "password"),
	ByCSS(`input[autocomplete="current-password"]`),
	ByCSS(`input[autocomplete="password"]`),
	ByCSS("#password"),
	ByCSS(".password-input"),
	ByCSS(`input[type="text"][name*="password" i]`),
)

var SubmitButton = NewCandidates("submit button",
	ByCSS(`button[type="submit"]`),
	ByText("button", "Log in"),
	ByText("button", "Sign in"),
	ByText("button", "Login"),
	ByText("button", "Sign In"),
	ByCSS(`input[type="submit"]`),
	ByCSS("button.submit"),
	ByCSS("form button"),
)

var LocationControl = NewCandidates("location control",
	ByCSS(`button[aria-label*="location"]`),
	ByCSS(`button[aria-label*="Location"]`),
	ByTestID("location"),
	ByText("button", "Location"),
	ByAttribute("input", "placeholder", "location"),
	ByAttribute("input", "placeholder", "city"),
	ByCSS(".location-selector"),
	ByCSS("#location"),
)

var CityInput = NewCandidates("city input",
	ByAttribute("input", "placeholder", "city"),
	ByAttribute("input", "name", "city"),
	ByAttribute("input", "id", "city"),
	ByAttribute("input", "aria-label", "city"),
	ByCSS(`input[type="text"]:first-of-type`),
)

var StateInput = NewCandidates("state input",
	ByAttribute("input", "placeholder", "state"),
	ByAttribute("input", "name", "state"),
	ByAttribute("input", "id", "state"),
	ByAttribute("input", "aria-label", "state"),
	ByAttribute("select", "name", "state"),
	ByAttribute("select", "id", "state"),
)

var ApplyButton = NewCandidates("apply button",
	ByText("button", "Apply"),
	ByText("button", "Search"),
	ByText("button", "Update"),
	ByCSS(`button[type="submit"]`),
)

var ProfileCards = NewCandidates("profile card",
	ByCSS(`div[class*="DirectoriesContainer_main"] a[href]`),
	ByTestID("chef"),
	ByTestID("profile"),
	ByCSS(".chef-card"),
	ByCSS(".profile-card"),
	ByCSS("article"),
	ByCSS(`[role="article"]`),
	ByCSS(".match-card"),
	ByCSS(`[class*="chef"]`),
	ByCSS(`[class*="profile"]`),
	ByCSS(`[class*="card"]`),
)

var MessageButton = NewCandidates("message button",
	ByCSS(".Listing_styles_cardBody__eD7Ue > div.Box_box__GrdOx.Box_displayBlock__AAL5s.Box_tabletDisplayBlock__PWHi6.Box_desktopDisplayNone__C62_U > div > button"),
	ByCSS("div.Box_box__GrdOx.Box_displayBlock__AAL5s.Box_tabletDisplayBlock__PWHi6.Box_desktopDisplayNone__C62_U button"),
	ByCSS(".Listing_styles_cardBody__eD7Ue button"),
	ByCSS(`div[class*="cardBody"] button`),
	ByCSS(`div[class*="Listing_styles_cardBody"] button`),
	ByText("button", "Send Message"),
	ByText("button", "Message"),
	ByAttribute("button", "aria-label", "message"),
	ByAttribute("button", "aria-label", "send"),
	ByText("a", "Message"),
	ByTestID("message"),
	ByCSS("button.send-message"),
	ByCSS(".message-button"),
	ByCSS(`button[type="button"]`),
)

var MessageInput = NewCandidates("message input",
	ByCSS("div.Overlay_centered__nmWFy textarea"),
	ByCSS(`div.Overlay_centered__nmWFy input[type="text"]`),
	ByCSS(`[id^="cgc-dialog"] textarea`),
	ByCSS(`[id^="cgc-dialog"] input[type="text"]`),
	ByAttribute("textarea", "placeholder", "message"),
	ByAttribute("textarea", "aria-label", "message"),
	ByCSS("textarea"),
	ByCSS(`[contenteditable="true"]`),
)

var SendButton = NewCandidates("send button",
	ByCSS("div.Overlay_centered__nmWFy > div > div > form > div > button"),
	ByCSS("div.Overlay_centered__nmWFy form > div > button"),
	ByCSS("div.Overlay_centered__nmWFy form button"),
	ByCSS(`[id^="cgc-dialog"] div.Overlay_centered__nmWFy form button`),
	ByCSS(`[id^="cgc-dialog"] form button`),
	ByCSS(`[id^="cgc-dialog"] button`),
	ByCSS(`div[class*="Overlay"] form button`),
	ByCSS(`div[class*="dialog"] form button`),
	ByCSS(`div[class*="modal"] form button`),
	ByText("button", "Send"),
	ByCSS(`button[type="submit"]`),
	ByAttribute("button", "aria-label", "send"),
	ByCSS(`form button[type="submit"]`),
	ByText("form button", "Send"),
)

var NextPage = NewCandidates("next page",
	ByText("button", "Next"),
	ByText("a", "Next"),
	ByAttribute("button", "aria-label", "next"),
	ByAttribute("a", "aria-label", "next"),
	ByTestID("next"),
	ByText("button", ">"),
	ByText("a", ">"),
	ByAttribute("button", "aria-label", "next page"),
	ByAttribute("a", "aria-label", "next page"),
)
