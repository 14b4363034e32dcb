package pages

import "unicode/utf8"

// Member is one project team member.
type Member struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	RegNo string `json:"reg_no"`
}

// Initial returns the first letter of the member's name.
func (m Member) Initial() string {
	r, _ := utf8.DecodeRuneInString(m.Name)
	if r == utf8.RuneError {
		return ""
	}
	return string(r)
}

// Milestone is a roadmap entry.
type Milestone struct {
	Date  string `json:"date"`
	Event string `json:"event"`
}

// AboutContent is the static content of the About page.
type AboutContent struct {
	Product        string      `json:"product"`
	Mission        string      `json:"mission"`
	Team           []Member    `json:"team"`
	Acknowledgment string      `json:"acknowledgment"`
	Features       []string    `json:"features"`
	TechStack      []string    `json:"tech_stack"`
	WhatIs         string      `json:"what_is"`
	Milestones     []Milestone `json:"milestones"`
	Repository     string      `json:"repository"`
}

// DefaultAbout returns the project's About page content.
func DefaultAbout() AboutContent {
	return AboutContent{
		Product: "Traffic Sense AI",
		Mission: "is built with a vision to enable efficient, accurate, and real-time traffic monitoring " +
			"for smarter roads and safer cities. Using state-of-the-art YOLO-based models, our system performs " +
			"real-time vehicle detection, tracking, counting, and detailed analytics across multiple live or offline video streams.",
		Team: []Member{
			{Name: "Dev Tailor", Role: "Full Stack Developer", RegNo: "22BCE11250"},
			{Name: "Priyadarshi Nihal", Role: "Full Stack ML Engineer", RegNo: "22BCE10665"},
			{Name: "Pratyush Dubey", Role: "AI & ML Engineer", RegNo: "22BCE10582"},
			{Name: "Dattatrey", Role: "Backend Developer", RegNo: "22BCE11036"},
			{Name: "Shivalik Mathur", Role: "Frontend Developer", RegNo: "22BCE11223"},
		},
		Acknowledgment: "We express our sincere gratitude to Dr. I. Jasmine Selvakumari Jeya, Assistant Dean, VIT Bhopal, " +
			"for her valuable guidance, encouragement, and academic support throughout this project. " +
			"Her direction in selecting the YOLO-FDD research foundation and mentoring us in enhancing " +
			"and structuring the model into our improved YOLO-FDE architecture played a pivotal role " +
			"in shaping this work. We are truly grateful for her mentorship in research paper structuring, " +
			"model evaluation methodologies, and continuous motivation.",
		Features: []string{
			"Real-time multi-stream inference (up to 4 videos at once)",
			"Accurate vehicle tracking with ByteTrack-based non-duplicate counting",
			"Supports YouTube, live feeds, and local video inference",
			"Detailed traffic analytics with total & class-wise vehicle stats",
			"Interactive dashboard and YOLO model performance comparison",
		},
		TechStack: []string{
			"PyTorch", "Ultralytics YOLOv8", "YOLO-FDE (Feature Dynamic Enhanced)", "Supervision",
			"OpenCV", "NumPy", "Matplotlib",
			"Go", "Prometheus", "SQLite", "ECharts",
		},
		WhatIs: "YOLO-FDE (Feature Dynamic Enhanced) is our custom YOLO variant designed specifically for " +
			"traffic surveillance. It enhances detection accuracy, mAP performance, and robustness by integrating " +
			"feature dynamic interaction heads, deformable convolution, dynamic sampling, and a refined attention-based " +
			"backbone, optimizing detection across varying lighting, occlusion, and motion conditions.",
		Milestones: []Milestone{
			{Date: "Sep 2025", Event: "Dataset Preparation & Base Model (YOLOv8) Training"},
			{Date: "Oct 2025", Event: "Enhanced Models Trained, Tested & Compared"},
			{Date: "Nov 2025", Event: "Backend + Frontend Development & Integration"},
		},
		Repository: "https://github.com/pnihal6/Traffic-Sense-AI",
	}
}
