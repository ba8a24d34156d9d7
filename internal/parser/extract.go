package parser

import (
	"strconv"
	"strings"

	"creditapi/internal/model"
)

// Candidate element paths per extracted field, ordered by preference: the
// first path that resolves to a non-empty value wins. The generic vocabulary
// (Applicant/Score/Accounts) and the Experian INProfileResponse vocabulary
// are both covered; new bureau formats only need new rows here.
var (
	namePaths = paths(
		"Applicant/Name",
		"Applicant/Full_Name",
		"Current_Applicant_Details/Full_Name",
	)
	firstNamePath = []string{"Current_Applicant_Details", "First_Name"}
	lastNamePath  = []string{"Current_Applicant_Details", "Last_Name"}

	phonePaths = paths(
		"Applicant/Telephone/Number",
		"Applicant/MobilePhone",
		"Current_Applicant_Details/MobilePhoneNumber",
		"Current_Applicant_Details/Mobile_Phone_Number",
	)
	panPaths = paths(
		"Applicant/Identifier/PAN",
		"Applicant/PAN",
		"Current_Applicant_Details/IncomeTaxPan",
	)
	scorePaths = paths(
		"Score/Value",
		"SCORE/BureauScore",
		"CreditScore",
	)

	// account collections: container element / repeated child element
	accountSetPaths = paths(
		"Accounts/Account",
		"CAIS_Account/CAIS_Account_DETAILS",
	)
	accountTypePaths    = paths("AccountType", "Account_Type")
	accountBankPaths    = paths("Institution", "Bank", "Subscriber_Name")
	accountNumberPaths  = paths("AccountNumber", "Account_Number")
	accountAddressPaths = paths("Address", "CAIS_Holder_Address_Details")
	accountStatusPaths  = paths("Status", "Account_Status")
	accountBalancePaths = paths("CurrentBalance", "Current_Balance")
	accountOverduePaths = paths("AmountOverdue", "Amount_Past_Due")

	summaryTotalPaths    = paths("Summary/TotalAccounts", "CAIS_Summary/CreditAccountTotal")
	summaryActivePaths   = paths("Summary/ActiveAccounts", "CAIS_Summary/CreditAccountActive")
	summaryClosedPaths   = paths("Summary/ClosedAccounts", "CAIS_Summary/CreditAccountClosed")
	summaryBalancePaths  = paths("Summary/CurrentBalanceAmount", "CAIS_Summary/Outstanding_Balance_All")
	summarySecuredPaths  = paths("Summary/SecuredAccountsAmount", "CAIS_Summary/Outstanding_Balance_Secured")
	summaryUnsecPaths    = paths("Summary/UnsecuredAccountsAmount", "CAIS_Summary/Outstanding_Balance_UnSecured")
	summaryEnquiryPaths  = paths("Summary/Last7DaysEnquiries", "TotalCAPS_Summary/TotalCAPSLast7Days", "CAPS_Summary/CAPSLast7Days")
)

// addressTags name the elements whose text contributes to the address list.
var addressTags = []string{"Address", "CAIS_Holder_Address_Details"}

// Extract maps raw markup to a CreditReport value. Only structurally invalid
// input fails (with *ParseError); absent fields come back nil/zero. The caller
// attaches ID, fileName and timestamps before persisting.
func Extract(raw []byte) (*model.CreditReport, error) {
	root, err := parseTree(raw)
	if err != nil {
		return nil, err
	}

	rep := &model.CreditReport{
		CreditAccounts: make([]model.CreditAccount, 0),
		Addresses:      make([]string, 0),
	}

	rep.BasicDetails = model.BasicDetails{
		Name:        applicantName(root),
		MobilePhone: firstText(root, phonePaths),
		PAN:         firstText(root, panPaths),
		CreditScore: firstInt(root, scorePaths),
	}

	for _, acc := range accountNodes(root) {
		rep.CreditAccounts = append(rep.CreditAccounts, model.CreditAccount{
			Type:           firstText(acc, accountTypePaths),
			Bank:           firstText(acc, accountBankPaths),
			AccountNumber:  firstText(acc, accountNumberPaths),
			Address:        addressText(acc, accountAddressPaths),
			Status:         firstText(acc, accountStatusPaths),
			CurrentBalance: firstAmount(acc, accountBalancePaths),
			AmountOverdue:  firstAmount(acc, accountOverduePaths),
		})
	}

	rep.ReportSummary = summarize(root, rep.CreditAccounts)
	rep.Addresses = collectAddresses(root)

	return rep, nil
}

// applicantName tries the single-element candidates first, then falls back to
// joining the Experian first/last name pair.
func applicantName(root *Node) *string {
	if s := firstText(root, namePaths); s != nil {
		return s
	}
	first := nodeText(findPath(root, firstNamePath))
	last := nodeText(findPath(root, lastNamePath))
	full := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if full == "" {
		return nil
	}
	return &full
}

// accountNodes returns the tradeline elements of the first account collection
// that matches, preserving document order.
func accountNodes(root *Node) []*Node {
	for _, p := range accountSetPaths {
		container := findPath(root, p[:len(p)-1])
		if container == nil {
			continue
		}
		if nodes := container.all(p[len(p)-1]); len(nodes) > 0 {
			return nodes
		}
	}
	return nil
}

// summarize prefers explicit document values per field and derives only what
// the document omits. Secured/unsecured amounts and enquiry counts are not
// derivable from tradelines and stay nil when absent.
func summarize(root *Node, accounts []model.CreditAccount) model.ReportSummary {
	s := model.ReportSummary{
		TotalAccounts:           firstInt(root, summaryTotalPaths),
		ActiveAccounts:          firstInt(root, summaryActivePaths),
		ClosedAccounts:          firstInt(root, summaryClosedPaths),
		CurrentBalanceAmount:    firstFloat(root, summaryBalancePaths),
		SecuredAccountsAmount:   firstFloat(root, summarySecuredPaths),
		UnsecuredAccountsAmount: firstFloat(root, summaryUnsecPaths),
		Last7DaysEnquiries:      firstInt(root, summaryEnquiryPaths),
	}

	if s.TotalAccounts == nil {
		total := len(accounts)
		s.TotalAccounts = &total
	}
	if s.ActiveAccounts == nil {
		active := countByStatus(accounts, "active")
		s.ActiveAccounts = &active
	}
	if s.ClosedAccounts == nil {
		closed := countByStatus(accounts, "closed")
		s.ClosedAccounts = &closed
	}
	if s.CurrentBalanceAmount == nil {
		var sum float64
		for _, a := range accounts {
			sum += a.CurrentBalance
		}
		s.CurrentBalanceAmount = &sum
	}
	return s
}

func countByStatus(accounts []model.CreditAccount, status string) int {
	n := 0
	for _, a := range accounts {
		if a.Status != nil && strings.EqualFold(*a.Status, status) {
			n++
		}
	}
	return n
}

// collectAddresses walks the whole tree once in document order so applicant
// and account addresses land in encounter order. Duplicates are kept.
func collectAddresses(root *Node) []string {
	out := make([]string, 0)
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, tag := range addressTags {
			if strings.EqualFold(n.Name, tag) {
				if s := flattenAddress(n); s != "" {
					out = append(out, s)
				}
				return
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, c := range root.Children {
		walk(c)
	}
	return out
}

// flattenAddress renders an address element as a single line: its own text
// for flat elements, or the non-empty child lines joined for structured ones.
func flattenAddress(n *Node) string {
	if t := n.text(); t != "" {
		return t
	}
	var lines []string
	for _, c := range n.Children {
		if t := c.text(); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, ", ")
}

func paths(specs ...string) [][]string {
	out := make([][]string, 0, len(specs))
	for _, s := range specs {
		out = append(out, strings.Split(s, "/"))
	}
	return out
}

func nodeText(n *Node) string {
	if n == nil {
		return ""
	}
	return n.text()
}

// firstText returns the first non-empty trimmed text among the candidates, or
// nil when every candidate is absent or blank.
func firstText(n *Node, candidates [][]string) *string {
	for _, p := range candidates {
		if s := nodeText(findPath(n, p)); s != "" {
			return &s
		}
	}
	return nil
}

// firstInt coerces the first non-empty candidate to an integer. Non-numeric
// text yields nil, never an error; this is the lenient-to-null policy used for
// the score and the summary counters.
func firstInt(n *Node, candidates [][]string) *int {
	s := firstText(n, candidates)
	if s == nil {
		return nil
	}
	v, err := strconv.Atoi(cleanNumber(*s))
	if err != nil {
		return nil
	}
	return &v
}

func firstFloat(n *Node, candidates [][]string) *float64 {
	s := firstText(n, candidates)
	if s == nil {
		return nil
	}
	v, err := strconv.ParseFloat(cleanNumber(*s), 64)
	if err != nil {
		return nil
	}
	return &v
}

// firstAmount is the lenient-to-zero coercion for tradeline amounts: absent or
// unparseable values become 0 so downstream sums stay defined.
func firstAmount(n *Node, candidates [][]string) float64 {
	s := firstText(n, candidates)
	if s == nil {
		return 0
	}
	v, err := strconv.ParseFloat(cleanNumber(*s), 64)
	if err != nil {
		return 0
	}
	return v
}

var numberCleaner = strings.NewReplacer(",", "", "₹", "", "$", "", "€", "", " ", "", " ", "")

func cleanNumber(s string) string {
	return numberCleaner.Replace(strings.TrimSpace(s))
}

func addressText(n *Node, candidates [][]string) *string {
	for _, p := range candidates {
		if m := findPath(n, p); m != nil {
			if s := flattenAddress(m); s != "" {
				return &s
			}
		}
	}
	return nil
}
