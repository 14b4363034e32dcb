package roster

// Image and document references for the compiled-in roster.
const (
	ArchitectureDiagram = "/images/yolov8_fde_architecture.png"
	PaperPath           = "/papers/YOLO_FDE.pdf"
)

// Default returns the compiled-in roster evaluated on the UA-DETRAC subset.
// It panics if the data violates an invariant; that is an authoring defect.
func Default() *Roster {
	r, err := New(defaultModels(),
		WithModules(defaultModules()),
		WithArchitecture(ArchitectureDiagram),
		WithPaper(PaperPath),
	)
	if err != nil {
		panic(err)
	}
	return r
}

func defaultModels() []ModelEntry {
	return []ModelEntry{
		{
			Name: "YOLOv8-N (Baseline)", Params: 3.01, FLOPs: 4.1,
			Precision: 0.8689, Recall: 0.8315, MAP50: 0.909, MAP50_95: 0.768,
			BoxLoss: 0.7102, ClsLoss: 0.3961, DFLLoss: 0.9712,
		},
		{
			Name: "YOLOv8-FDIDH + DWR", Params: 13.57, FLOPs: 12.5,
			Precision: 0.9056, Recall: 0.8319, MAP50: 0.9003, MAP50_95: 0.7603,
			BoxLoss: 0.7387, ClsLoss: 0.3992, DFLLoss: 0.9294,
		},
		{
			Name: "YOLOv8-FDIDH + DySample", Params: 21.19, FLOPs: 15.0,
			Precision: 0.8676, Recall: 0.831, MAP50: 0.898, MAP50_95: 0.7207,
			BoxLoss: 0.8996, ClsLoss: 0.5169, DFLLoss: 0.9969,
		},
		{
			Name: "YOLOv8-FDD", Params: 16.56, FLOPs: 40.02,
			Precision: 0.8433, Recall: 0.7919, MAP50: 0.8717, MAP50_95: 0.6797,
			BoxLoss: 1.0281, ClsLoss: 0.6629, DFLLoss: 1.0904,
		},
		{
			Name: "YOLOv8-FDE (Proposed)", Params: 2.69, FLOPs: 3.5,
			Precision: 0.9077, Recall: 0.8806, MAP50: 0.9242, MAP50_95: 0.8159,
			BoxLoss: 0.6083, ClsLoss: 0.3239, DFLLoss: 0.8771,
		},
	}
}

func defaultModules() []ModuleDescriptor {
	return []ModuleDescriptor{
		{
			Title:   "C3K2 Block",
			Summary: "Compact residual unit using smaller kernels for lower compute without compromising receptive field.",
			Diagram: "/images/c3k2_diagram.png",
			Detail:  "C3K2 modifies the classic C3/C2f structure with lighter convolution layers and smaller kernels, enabling efficient multi-scale representation while cutting parameters.",
		},
		{
			Title:   "FDIDH (Feature Dynamic Interaction Detection Head)",
			Summary: "Enhances classification–regression interaction with dynamic feature fusion and deformable convolutions.",
			Diagram: "/images/fdidh_diagram.png",
			Detail: "FDIDH explicitly links classification and regression:\n" +
				"• Residual 3×3 convs for pre-interaction features.\n" +
				"• Regression branch with Deformable Convolutions for adaptive boundary sampling.\n" +
				"• Classification branch uses dynamic filters for boundary-aware focus.\n" +
				"• Layer Attention preserves independence while improving shared understanding.",
		},
		{
			Title:   "DySample (Dynamic Sampling Upsampling)",
			Summary: "Adaptive upsampling that learns positional biases for fine-grained object reconstruction.",
			Diagram: "/images/dysample_diagram.png",
			Detail: "DySample learns offset fields and positional biases:\n" +
				"• Replaces nearest-neighbor upsampling with learned dynamic sampling.\n" +
				"• Grouped channel processing for efficiency.\n" +
				"• Improves detail recovery for small or occluded objects.",
		},
		{
			Title:   "DWR (Dilation-Wise Residual)",
			Summary: "Parallel dilated conv branches expand receptive field efficiently at neck layers (P4/P5).",
			Diagram: "/images/dwr_diagram.png",
			Detail: "DWR introduces multi-dilation branches:\n" +
				"• Local capture with 3×3 Conv→BN→ReLU.\n" +
				"• Semantic expansion with depthwise dilations (2×, 4×, 8×).\n" +
				"• Receptive field boost without parameter inflation.",
		},
		{
			Title:   "Post-SPPF Attention",
			Summary: "Light attention post-SPPF for motion and shape amplification under varied lighting.",
			Diagram: "/images/post_sppf_attention.png",
			Detail:  "Analyzes pooled SPPF outputs to reweight channels/spatial regions for clearer motion & shape cues under complex lighting.",
		},
	}
}
