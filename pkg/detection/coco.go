package detection

// COCOClasses contains the 80 COCO class names in model output order
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// ClassName returns the COCO name for a class id, or "" when out of range
func ClassName(id int) string {
	if id < 0 || id >= len(COCOClasses) {
		return ""
	}
	return COCOClasses[id]
}

// IsAnimal returns true if the class is an animal
func IsAnimal(className string) bool {
	animals := map[string]bool{
		"bird": true, "cat": true, "dog": true, "horse": true, "sheep": true,
		"cow": true, "elephant": true, "bear": true, "zebra": true, "giraffe": true,
	}
	return animals[className]
}

// IsPerson returns true if the class is a person
func IsPerson(className string) bool {
	return className == "person"
}
