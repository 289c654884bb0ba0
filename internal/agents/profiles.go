package agents

var photon = &Agent{
	Name:        "photon",
	Domain:      "optics",
	DisplayName: "Optics & Photonics",
	Description: "Reviews optics, photonics, and laser physics papers.",
	Keywords: []string{
		"wavelength", "laser", "optical", "photon", "lens",
		"aperture", "fso", "turbulence", "diffraction", "refractive",
		"beam", "spectroscopy", "fiber", "coherence", "polarization",
	},
	WeightedKeywords: []string{
		"free-space optical", "adaptive optics", "beam propagation",
		"wavefront", "interferometer", "spectrometer",
		"photonic crystal", "optical fiber", "laser diode",
		"focal length", "numerical aperture", "fresnel",
		"scintillation", "beam quality", "m-squared",
		"mode-locked", "femtosecond", "photoluminescence",
	},
	RecipeParameters: []string{
		"wavelength", "aperture", "focal_length", "beam_quality",
		"power", "pressure", "temperature", "flow_rate",
		"substrate", "precursor", "growth_time",
	},
	ScreeningPrompt: "Focus on optical system novelty: wavelength regime, " +
		"beam handling, and whether the claimed performance respects the " +
		"diffraction limit. Flag results that exceed fundamental optical limits.",
	VisualPrompt: "Check beam profiles, spectra, and transfer functions. " +
		"Verify axis scales on intensity plots (linear vs log) and that error " +
		"bars reflect shot-to-shot variation, not instrument resolution.",
	RecipePrompt: "Extract every optical setup parameter: source wavelength " +
		"and power, aperture sizes, focal lengths, detector specs, and " +
		"environmental conditions that affect propagation.",
	DeepDivePrompt: "Verify energy conservation and the diffraction limit. " +
		"Check whether reported efficiencies and beam quality factors are " +
		"physically plausible for the described setup.",
}

var cell = &Agent{
	Name:        "cell",
	Domain:      "bio",
	DisplayName: "Biology & Biochemistry",
	Description: "Reviews molecular biology and biochemistry papers.",
	Keywords: []string{
		"cell", "protein", "gene", "dna", "rna",
		"enzyme", "tissue", "antibody", "metabolite", "sequencing",
	},
	WeightedKeywords: []string{
		"crispr", "western blot", "pcr", "immunofluorescence",
		"cell culture", "gene expression", "protein folding",
		"genome", "transcriptome", "proteome", "metabolome",
		"in vivo", "in vitro", "apoptosis", "proliferation",
		"plasmid", "transfection", "knock-out",
	},
	RecipeParameters: []string{
		"cell_line", "passage_number", "culture_medium",
		"serum_concentration", "antibody_dilution", "incubation_time",
		"incubation_temperature", "centrifuge_speed", "pcr_cycles",
		"primer_sequence", "transfection_reagent", "drug_concentration",
	},
	ScreeningPrompt: "Focus on experimental design: controls, replicates, " +
		"and whether the model system supports the biological claim. Flag " +
		"missing negative controls and unstated sample sizes.",
	VisualPrompt: "Check blots and micrographs for manipulation artifacts, " +
		"verify scale bars, and confirm quantification plots state n and " +
		"the statistical test used.",
	RecipePrompt: "Extract culture conditions, reagent concentrations, " +
		"timings, and equipment settings. Cell line provenance and passage " +
		"number are critical for reproducibility.",
	DeepDivePrompt: "Evaluate whether statistics support the claims: " +
		"multiple-comparison corrections, biological vs technical " +
		"replicates, and effect sizes versus p-values.",
}

var neural = &Agent{
	Name:        "neural",
	Domain:      "ai_ml",
	DisplayName: "AI & Machine Learning",
	Description: "Reviews machine learning and AI papers.",
	Keywords: []string{
		"neural network", "deep learning", "transformer", "attention",
		"gradient", "backpropagation", "loss function", "dataset",
		"training",
	},
	WeightedKeywords: []string{
		"convolutional neural network", "recurrent neural network",
		"generative adversarial", "reinforcement learning",
		"fine-tuning", "pre-training", "language model",
		"batch normalization", "dropout", "embedding",
		"cross-entropy", "softmax", "bert", "gpt",
		"diffusion model", "variational autoencoder",
	},
	RecipeParameters: []string{
		"model_architecture", "num_layers", "hidden_dim", "num_heads",
		"learning_rate", "optimizer", "batch_size", "num_epochs",
		"dataset_name", "dataset_size", "train_test_split", "random_seed",
		"gpu_type", "training_time", "framework_version",
		"augmentation_strategy",
	},
	ScreeningPrompt: "Focus on baseline fairness and evaluation protocol. " +
		"Flag comparisons against weak or stale baselines and results " +
		"reported on a single seed.",
	VisualPrompt: "Check training curves for convergence, verify ablation " +
		"plots vary one factor at a time, and watch for truncated y-axes " +
		"that exaggerate improvements.",
	RecipePrompt: "Extract the full training recipe: architecture " +
		"dimensions, optimizer settings, data splits, seeds, and compute " +
		"budget. Missing seeds or splits block reproduction.",
	DeepDivePrompt: "Evaluate whether gains are within noise: variance " +
		"across seeds, test-set reuse, and whether compute-matched " +
		"baselines were used.",
}

var circuit = &Agent{
	Name:        "circuit",
	Domain:      "ee",
	DisplayName: "Electrical Engineering",
	Description: "Reviews circuits and semiconductor papers.",
	Keywords: []string{
		"semiconductor", "transistor", "cmos", "voltage", "current",
		"circuit", "impedance", "power",
	},
	WeightedKeywords: []string{
		"mosfet", "finfet", "gate oxide", "doping",
		"integrated circuit", "vlsi", "analog circuit",
		"digital circuit", "signal processing", "amplifier",
		"oscillator", "power converter", "pcb",
		"electromigration", "threshold voltage", "leakage current",
	},
	RecipeParameters: []string{
		"process_node", "transistor_type", "supply_voltage",
		"operating_frequency", "bandwidth", "gain", "power_consumption",
		"noise_figure", "die_area", "input_referred_noise", "linearity",
		"sampling_rate", "simulation_tool", "measurement_setup",
	},
	ScreeningPrompt: "Focus on whether results are simulated or measured. " +
		"Flag simulation-only papers presenting results as silicon " +
		"measurements.",
	VisualPrompt: "Check eye diagrams, Bode plots, and die photos. Verify " +
		"frequency axes are log scale where expected and measurement " +
		"conditions are annotated.",
	RecipePrompt: "Extract process node, bias conditions, operating " +
		"frequency, and the measurement setup. Distinguish schematic-level " +
		"from post-layout results.",
	DeepDivePrompt: "Verify power and noise figures against theoretical " +
		"limits for the process node, and check figure-of-merit " +
		"comparisons use consistent conditions.",
}
