// Package site holds the public content of the KK Financial website.
package site

import (
	"strings"

	"github.com/kkfinancial/loan-consult/internal/config"
	"github.com/kkfinancial/loan-consult/internal/leads"
)

// Service is one loan product.
type Service struct {
	ID           leads.LoanType
	Name         string
	Icon         string
	Tagline      string
	Summary      string
	Description  string
	Features     []string
	Benefits     []string
	InterestRate string
	MaxAmount    string
	MaxTenure    string
}

// Highlight is an icon, a title and a sentence.
type Highlight struct {
	Icon        string
	Title       string
	Description string
}

// Stat is a headline number.
type Stat struct {
	Icon  string
	Value string
	Label string
}

// Milestone is an entry of the company timeline.
type Milestone struct {
	Year        string
	Title       string
	Description string
}

// TeamMember is a person on the About page.
type TeamMember struct {
	Name        string
	Title       string
	Description string
	Expertise   []string
}

// FAQ is a question and its answer.
type FAQ struct {
	Question string
	Answer   string
}

// Contact holds the business contact details.
type Contact struct {
	Phone        string
	PhoneDisplay string
	Emails       []string
	Address      string
	Hours        string
}

// TelLink is the tel: URL for the phone number.
func (c Contact) TelLink() string {
	return "tel:" + strings.ReplaceAll(c.Phone, " ", "")
}

// Content is everything the pages render.
type Content struct {
	Name       string
	Handle     string
	Tagline    string
	Founded    int
	Contact    Contact
	Services   []Service
	Features   []Highlight
	Stats      []Stat
	Values     []Highlight
	Timeline   []Milestone
	Team       []TeamMember
	FAQs       []FAQ
	Categories []string
}

// Service returns the service with id.
func (c *Content) Service(id leads.LoanType) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// LoanOption is an entry of the consultation form's loan type select.
type LoanOption struct {
	Value leads.LoanType
	Label string
}

// LoanOptions lists the form's loan types in order.
func (c *Content) LoanOptions() []LoanOption {
	out := make([]LoanOption, 0, len(leads.LoanTypes))
	for _, t := range leads.LoanTypes {
		out = append(out, LoanOption{Value: t, Label: t.Label()})
	}
	return out
}

// New returns the site content with the contact details overridden by cfg.
func New(cfg config.Configuration) *Content {
	c := defaultContent()
	if len(cfg.Notify.Recipients) > 0 {
		c.Contact.Emails = append([]string(nil), cfg.Notify.Recipients...)
	}
	if cfg.Site.Phone != "" {
		c.Contact.Phone = cfg.Site.Phone
		c.Contact.PhoneDisplay = cfg.Site.Phone
	}
	if cfg.Site.Address != "" {
		c.Contact.Address = cfg.Site.Address
	}
	return c
}

func defaultContent() *Content {
	return &Content{
		Name:    "KK Financial 2016",
		Handle:  "kkfinancial2016",
		Tagline: "Unlock Your Financial Future",
		Founded: 2016,
		Contact: Contact{
			Phone:        "+919372267693",
			PhoneDisplay: "+91 93722 67693",
			Emails:       append([]string(nil), config.DefaultRecipients...),
			Address:      "Office No 27, Ground Floor, Dimple Arcade, Thakur Complex, Kandivali East, Mumbai 400101",
			Hours:        "Mon - Sat: 9:00 AM - 7:00 PM",
		},
		Services: []Service{
			{
				ID:          leads.LoanHousing,
				Name:        "Housing Loans",
				Icon:        "fa-home",
				Tagline:     "Make your dream home a reality",
				Summary:     "Make your dream home a reality with our competitive housing loan options and expert guidance.",
				Description: "Turn your dream of owning a home into reality with our competitive housing loan solutions. We offer flexible terms, attractive interest rates, and quick approval processes to help you secure your ideal home.",
				Features: []string{
					"Loan amounts up to ₹5 Crores",
					"Interest rates starting from 8.5% p.a.",
					"Tenure up to 30 years",
					"Minimal documentation required",
					"Quick approval and disbursement",
					"Balance transfer facilities available",
				},
				Benefits: []string{
					"Tax Benefits under Section 80C & 24B",
					"Zero prepayment charges",
					"Free credit shield insurance",
				},
				InterestRate: "8.5% - 10.5%",
				MaxAmount:    "Up to ₹5 Crores",
				MaxTenure:    "Up to 30 years",
			},
			{
				ID:          leads.LoanProperty,
				Name:        "Loan Against Property",
				Icon:        "fa-building",
				Tagline:     "Unlock the value of your property",
				Summary:     "Unlock the value of your property with our flexible LAP solutions for all your financial needs.",
				Description: "Leverage your residential or commercial property to meet your financial needs. Our LAP solutions offer higher loan amounts at attractive interest rates for business expansion, education, medical emergencies, or any other purpose.",
				Features: []string{
					"Loan amounts up to ₹10 Crores",
					"Interest rates starting from 9.5% p.a.",
					"Tenure up to 20 years",
					"LTV ratio up to 70%",
					"Flexible repayment options",
					"Multi-purpose usage allowed",
				},
				Benefits: []string{
					"Lower interest rates than personal loans",
					"Continue living in your property",
					"Tax benefits available",
				},
				InterestRate: "9.5% - 12%",
				MaxAmount:    "Up to ₹10 Crores",
				MaxTenure:    "Up to 20 years",
			},
			{
				ID:          leads.LoanPersonal,
				Name:        "Personal Loans",
				Icon:        "fa-user",
				Tagline:     "Quick funds for immediate needs",
				Summary:     "Quick and hassle-free personal loans for all your immediate financial requirements.",
				Description: "Get instant access to funds for weddings, medical emergencies, travel, debt consolidation, or any personal requirement. Our personal loans offer quick processing with minimal documentation.",
				Features: []string{
					"Loan amounts up to ₹40 Lakhs",
					"Interest rates starting from 10.99% p.a.",
					"Tenure up to 7 years",
					"No collateral required",
					"Quick approval within 24 hours",
					"Digital application process",
				},
				Benefits: []string{
					"Instant approval and disbursement",
					"Minimal documentation",
					"No usage restrictions",
				},
				InterestRate: "10.99% - 24%",
				MaxAmount:    "Up to ₹40 Lakhs",
				MaxTenure:    "Up to 7 years",
			},
			{
				ID:          leads.LoanBusiness,
				Name:        "Business Loans",
				Icon:        "fa-briefcase",
				Tagline:     "Fuel your business growth",
				Summary:     "Fuel your business growth with our tailored business loan solutions and expert support.",
				Description: "Expand your business operations with our flexible business loan solutions. Whether you need working capital, equipment financing, or expansion funding, we have the right solution for you.",
				Features: []string{
					"Loan amounts up to ₹5 Crores",
					"Interest rates starting from 11% p.a.",
					"Tenure up to 10 years",
					"Minimal documentation",
					"Quick processing and disbursement",
					"Flexible repayment options",
				},
				Benefits: []string{
					"Grow your business without equity dilution",
					"Tax deductible interest payments",
					"Improve cash flow management",
				},
				InterestRate: "11% - 18%",
				MaxAmount:    "Up to ₹5 Crores",
				MaxTenure:    "Up to 10 years",
			},
			{
				ID:          leads.LoanVehicle,
				Name:        "Vehicle Loans",
				Icon:        "fa-car",
				Tagline:     "Drive your dream vehicle today",
				Summary:     "Drive your dream vehicle today with our competitive auto loan rates and quick approval.",
				Description: "Own your dream car or bike with our competitive vehicle loan rates. We offer financing for new and used vehicles with flexible repayment options and minimal documentation.",
				Features: []string{
					"Loan amounts up to ₹50 Lakhs",
					"Interest rates starting from 8.5% p.a.",
					"Tenure up to 7 years",
					"Up to 90% financing available",
					"Quick approval process",
					"Insurance options included",
				},
				Benefits: []string{
					"Competitive interest rates",
					"Flexible EMI options",
					"Quick loan processing",
				},
				InterestRate: "8.5% - 12%",
				MaxAmount:    "Up to ₹50 Lakhs",
				MaxTenure:    "Up to 7 years",
			},
			{
				ID:          leads.LoanEducation,
				Name:        "Education Loans",
				Icon:        "fa-graduation-cap",
				Tagline:     "Invest in your future",
				Summary:     "Invest in your future with our comprehensive education loan solutions for all courses.",
				Description: "Fulfill your educational dreams with our comprehensive education loan solutions. We finance studies in India and abroad across all streams and institutions.",
				Features: []string{
					"Loan amounts up to ₹1.5 Crores",
					"Interest rates starting from 9.5% p.a.",
					"Tenure up to 15 years",
					"Covers tuition, living, and other expenses",
					"Moratorium period available",
					"Tax benefits under Section 80E",
				},
				Benefits: []string{
					"100% finance for eligible courses",
					"No collateral for loans up to ₹7.5 Lakhs",
					"Flexible repayment options",
				},
				InterestRate: "9.5% - 14%",
				MaxAmount:    "Up to ₹1.5 Crores",
				MaxTenure:    "Up to 15 years",
			},
		},
		Features: []Highlight{
			{Icon: "fa-university", Title: "Direct Bank Relationships", Description: "We work directly with leading banks to ensure you get the best rates and fastest approvals."},
			{Icon: "fa-comments", Title: "Free Financial Counseling", Description: "Expert guidance at no cost to help you make informed financial decisions."},
			{Icon: "fa-clock", Title: "Quick Processing", Description: "Streamlined processes to ensure quick loan approvals and disbursements."},
			{Icon: "fa-heart", Title: "Personalized Solutions", Description: "Customized financial solutions tailored to your specific needs and circumstances."},
		},
		Stats: []Stat{
			{Icon: "fa-university", Value: "15+", Label: "Bank Partners"},
			{Icon: "fa-award", Value: "9+", Label: "Years Experience"},
			{Icon: "fa-rupee-sign", Value: "₹100Cr+", Label: "Loans Facilitated"},
		},
		Values: []Highlight{
			{Icon: "fa-shield-alt", Title: "Trust & Integrity", Description: "We build lasting relationships through transparent communication and honest advice, ensuring our clients always know where they stand."},
			{Icon: "fa-users", Title: "Client-Centric Approach", Description: "Every solution we provide is tailored to our client's unique needs, ensuring they get the best possible outcome for their situation."},
			{Icon: "fa-lightbulb", Title: "Innovation", Description: "We continuously evolve our services and embrace new technologies to provide better, faster, and more efficient solutions."},
			{Icon: "fa-award", Title: "Excellence", Description: "We strive for excellence in everything we do, from initial consultation to loan disbursement and beyond."},
			{Icon: "fa-handshake", Title: "Partnership", Description: "We view our relationship with clients as a long-term partnership, supporting them throughout their financial journey."},
			{Icon: "fa-clock", Title: "Reliability", Description: "Our clients can count on us to deliver on our promises, with consistent communication and timely service delivery."},
		},
		Timeline: []Milestone{
			{Year: "2016", Title: "Company Founded", Description: "Started with a vision to simplify financial solutions"},
			{Year: "2018", Title: "First 500 Clients", Description: "Reached our first major milestone"},
			{Year: "2020", Title: "Digital Transformation", Description: "Embraced technology for better service"},
			{Year: "2025", Title: "Industry Leader", Description: "Recognized as a trusted financial partner"},
		},
		Team: []TeamMember{
			{
				Name:        "Mrs. Kumkum Dubey",
				Title:       "Proprietor",
				Description: "As the proprietor of KK Financial 2016, Mrs. Dubey has over 9 years of experience in financial consulting. She has been instrumental in building the company into a trusted name in the industry. Her expertise in loan structuring and client relations has helped numerous clients achieve their financial goals.",
				Expertise:   []string{"Financial Planning", "Loan Consulting", "Client Relations", "Risk Assessment"},
			},
			{
				Name:        "Mr. Vijay Kumar Dubey",
				Title:       "Main Person of the Company",
				Description: "As the main person of the company, Mr. Dubey brings extensive experience in financial operations and strategic planning. His deep understanding of banking processes and regulatory compliance ensures smooth loan processing and maintains the highest standards of service delivery for our clients.",
				Expertise:   []string{"Operations Management", "Strategic Planning", "Regulatory Compliance", "Process Optimization"},
			},
		},
		FAQs: []FAQ{
			{Question: "How long does the loan approval process take?", Answer: "The approval time varies by loan type and bank. Personal loans can be approved within 24-48 hours, while housing loans typically take 7-15 days. We ensure the fastest possible processing through our direct bank relationships."},
			{Question: "What documents are required for a loan application?", Answer: "Generally, you'll need ID proof, address proof, income proof (salary slips or ITR), and bank statements. Specific requirements vary by loan type - we'll provide a detailed checklist based on your needs."},
			{Question: "Do you charge for consultation services?", Answer: "No, our consultation services are completely free. We earn through bank partnerships, so you get expert guidance at no cost."},
			{Question: "Can I get a loan with a low CIBIL score?", Answer: "Yes, we work with multiple banks and have options for various credit profiles. We also provide guidance on improving your CIBIL score for better rates."},
			{Question: "Is prepayment allowed on loans?", Answer: "Most loans allow prepayment, though terms vary by lender. We'll help you understand prepayment charges and choose loans with flexible prepayment options."},
		},
		Categories: []string{
			"Housing Loans",
			"Loan Against Property",
			"Personal Loans",
			"Business Loans",
			"Vehicle Loans",
			"Education Loans",
			"Financial Counseling",
			"Overall Experience",
		},
	}
}
